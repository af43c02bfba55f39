package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// codeAttempts bounds how many codes are tried for one insert.
const codeAttempts = 5

const (
	minCode = 100000
	maxCode = 999999
)

// CodeGenerator returns a candidate confirmation code.
type CodeGenerator func() (string, error)

// RandomCode returns a uniformly random 6-digit code. Codes are sparse and
// unguessable rather than sequential.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}

// insertWithCode mints a code for r and inserts it, retrying with a fresh
// code when the store reports a collision with a live reservation.
func (e *Engine) insertWithCode(ctx context.Context, tx repository.Tx, r *model.Reservation) error {
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		code, err := e.codes()
		if err != nil {
			return fmt.Errorf("generate confirmation code: %w", err)
		}
		r.Code = code
		err = tx.InsertReservation(ctx, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}
		e.log.WithField("attempt", attempt).Debug("confirmation code collision")
	}
	r.Code = ""
	return &Error{Kind: KindCodeCollision, Message: fmt.Sprintf("no unique confirmation code after %d attempts", codeAttempts)}
}
