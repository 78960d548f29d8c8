package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeIndicatorNotFound, "indicator %s not registered", "macd")
	suite.Equal(ErrCodeIndicatorNotFound, err.Code)
	suite.Equal("indicator macd not registered", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[300] indicator macd not registered", err.Error())
}

func (suite *ErrorTestSuite) TestWrapKeepsCause() {
	cause := errors.New("connection reset")
	err := Wrapf(ErrCodeFeedRefreshFailed, cause, "refresh %s", "BTCUSDT")

	suite.Equal("[201] refresh BTCUSDT: connection reset", err.Error())
	suite.True(Is(err, cause))
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrapping() {
	inner := New(ErrCodeInvalidRule, "rule has no conditions")
	outer := fmt.Errorf("build reducer: %w", inner)

	suite.Equal(ErrCodeInvalidRule, GetCode(outer))
	suite.True(HasCode(outer, ErrCodeInvalidRule))
	suite.False(HasCode(outer, ErrCodeUnknownOperator))
}

func (suite *ErrorTestSuite) TestGetCodeOnPlainError() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

func (suite *ErrorTestSuite) TestAs() {
	var target *Error
	err := fmt.Errorf("ctx: %w", New(ErrCodeOrderFailed, "rejected"))

	suite.True(As(err, &target))
	suite.Equal(ErrCodeOrderFailed, target.Code)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(35, 10, "macd")
	suite.Equal("insufficient data for macd: need 35 bars, have 10", err.Error())
	suite.True(IsInsufficientDataError(fmt.Errorf("compute: %w", err)))
	suite.False(IsInsufficientDataError(New(ErrCodeInsufficientData, "x")))

	anonymous := NewInsufficientDataError(5, 1, "")
	suite.Equal("insufficient data: need 5 bars, have 1", anonymous.Error())
}
