package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessage() {
	s.Equal("record not found", New(CodeNotFound, "record not found").Error())
	s.Equal("not_found", (&Error{Code: CodeNotFound}).Error())
	s.Equal("unsupported legal basis: HUNCH", Newf(CodeInvalidInput, "unsupported legal basis: %s", "HUNCH").Error())
}

func (s *DomainErrorsSuite) TestErrorsIsMatchesByCode() {
	err := fmt.Errorf("evaluate: %w", New(CodeNotFound, "artifact not found"))

	s.True(errors.Is(err, &Error{Code: CodeNotFound}))
	s.False(errors.Is(err, &Error{Code: CodeInternal}))
	s.False(New(CodeNotFound, "x").(*Error).Is(errors.New("not_found")))
}

func (s *DomainErrorsSuite) TestInvalid() {
	err := Invalid("estimated_volume", "%s must be at least %d", "estimated_volume", 0)

	var de *Error
	s.Require().ErrorAs(err, &de)
	s.Equal(CodeValidation, de.Code)
	s.Equal("estimated_volume", de.Field)
	s.Equal("estimated_volume must be at least 0", de.Message)
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the code and field of a wrapped domain error", func() {
		inner := Invalid("tier", "tier must be a risk tier")
		wrapped := Wrap(inner, CodeInternal, "release remediation")

		var de *Error
		s.Require().ErrorAs(wrapped, &de)
		s.Equal(CodeValidation, de.Code)
		s.Equal("tier", de.Field)
		s.Equal("release remediation", de.Error())
		s.Same(inner, errors.Unwrap(wrapped))
	})

	s.Run("uses the given code for plain errors", func() {
		wrapped := Wrap(context.DeadlineExceeded, CodeTimeout, "safeguard lookup")

		s.True(HasCode(wrapped, CodeTimeout))
		s.ErrorIs(wrapped, context.DeadlineExceeded)
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeConflict, CodeOf(fmt.Errorf("lock: %w", New(CodeConflict, "held"))))
	s.Equal(Code(""), CodeOf(errors.New("plain")))
	s.Equal(Code(""), CodeOf(nil))
	s.False(HasCode(nil, CodeNotFound))
}

func (s *DomainErrorsSuite) TestRetryable() {
	for _, c := range []Code{CodeTimeout, CodeUnavailable, CodeConflict} {
		s.True(c.Retryable(), c)
	}
	for _, c := range []Code{CodeNotFound, CodeBadRequest, CodeInvalidInput, CodeValidation, CodeInternal} {
		s.False(c.Retryable(), c)
	}
}
