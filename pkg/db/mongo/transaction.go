package mongo

import (
	"context"
	"fmt"
	apperrors "staybook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionFunc runs inside a transaction. The ctx it receives carries the
// session, so every repository call made with it joins the transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
	}
}

// ExecuteTransaction runs fn in a snapshot/majority transaction. A ctx that
// already carries a session joins the outer transaction instead of nesting.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, txnOpts)

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

type passthroughTransactionManager struct{}

// NewPassthroughTransactionManager returns a manager that runs fn directly.
// In-memory stores use it and undo their own writes on failure.
func NewPassthroughTransactionManager() TransactionManager {
	return passthroughTransactionManager{}
}

func (passthroughTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return fn(ctx)
}
