package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgCode ambil SQLSTATE dari error pgx maupun lib/pq.
func pgCode(err error) (string, string) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.Message
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Message
	}
	return "", ""
}

func IsUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == "23505"
}

// MapPGError memetakan error Postgres ke status HTTP + pesan yang aman ditampilkan.
func MapPGError(err error) (int, string) {
	code, msg := pgCode(err)
	switch code {
	case "":
		return fiber.StatusInternalServerError, err.Error()
	case "23503":
		return fiber.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
	case "23505":
		return fiber.StatusConflict, "Data duplikat (unique violation)."
	case "23514":
		return fiber.StatusBadRequest, "Nilai tidak lolos constraint (check violation)."
	case "40001", "40P01":
		return fiber.StatusConflict, "Transaksi bentrok, silakan ulangi."
	default:
		return fiber.StatusInternalServerError, msg
	}
}
