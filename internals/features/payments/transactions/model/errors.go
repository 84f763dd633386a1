package model

import "errors"

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is no longer pending")
	ErrPollNotFound          = errors.New("promoted poll not found")
	// poll sudah di-link ke transaksi lain (mis. setelah retry pembayaran)
	ErrPollLinkChanged     = errors.New("promoted poll is linked to another transaction")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWalletNotFound      = errors.New("wallet not found")
)
