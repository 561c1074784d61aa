package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type Transaction struct {
	operations []Operation
	log        logrus.FieldLogger
}

type Operation struct {
	Name       string
	Fn         func(context.Context) error
	Compensate *Compensation // undone in reverse order when a later step fails
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

type StepError struct {
	Operation  string
	RolledBack int
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("operation '%s' failed: %v (rolled back %d operations)", e.Operation, e.Err, e.RolledBack)
}

func (e *StepError) Unwrap() error { return e.Err }

func NewTransaction(log logrus.FieldLogger) *Transaction {
	return &Transaction{log: log}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{Name: name, Fn: fn})
}

// AddCompensation attaches an undo step to the most recently added operation.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	if len(t.operations) == 0 {
		return
	}
	t.operations[len(t.operations)-1].Compensate = &Compensation{Name: name, Fn: fn}
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			rolled := t.rollback(ctx, i)
			return &StepError{Operation: op.Name, RolledBack: rolled, Err: err}
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) int {
	rolled := 0
	for i := failedAtIndex - 1; i >= 0; i-- {
		comp := t.operations[i].Compensate
		if comp == nil {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			t.log.WithField("compensation", comp.Name).WithError(err).Error("compensation failed, store left inconsistent")
			continue
		}
		rolled++
	}
	return rolled
}
