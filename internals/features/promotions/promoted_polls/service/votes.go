package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
)

var (
	ErrInvalidBudget  = errors.New("budget and cost_per_vote must be greater than zero")
	ErrBudgetTooSmall = errors.New("budget must cover at least one vote")
	ErrPollNotActive  = errors.New("promoted poll is not active")
	ErrBudgetExceeded = errors.New("vote would exceed promoted poll budget")
)

// TargetVotes = floor(budget / cost_per_vote), minimal 1.
func TargetVotes(budget, costPerVote decimal.Decimal) (int, error) {
	if !budget.IsPositive() || !costPerVote.IsPositive() {
		return 0, ErrInvalidBudget
	}
	n := budget.Div(costPerVote).Floor().IntPart()
	if n < 1 {
		return 0, ErrBudgetTooSmall
	}
	return int(n), nil
}

/*
ApplyVote mencatat satu vote ke poll (mutasi in-place, caller yang menyimpan):
  - hanya poll active
  - spent += cost_per_vote, votes_received += 1, spent tidak boleh melewati budget
  - target tercapai atau sisa budget < cost_per_vote → completed
*/
func ApplyVote(p *ppmodel.PromotedPoll, now time.Time) (completed bool, err error) {
	if p.PromotedPollStatus != ppmodel.StatusActive {
		return false, fmt.Errorf("%w (status=%s)", ErrPollNotActive, p.PromotedPollStatus)
	}
	spent := p.PromotedPollSpent.Add(p.PromotedPollCostPerVote)
	if spent.GreaterThan(p.PromotedPollBudget) {
		return false, ErrBudgetExceeded
	}

	p.PromotedPollSpent = spent
	p.PromotedPollVotesReceived++
	p.PromotedPollUpdatedAt = now

	if p.PromotedPollVotesReceived >= p.PromotedPollTargetVotes ||
		p.RemainingBudget().LessThan(p.PromotedPollCostPerVote) {
		p.PromotedPollStatus = ppmodel.StatusCompleted
		p.PromotedPollCompletedAt = &now
		return true, nil
	}
	return false, nil
}
