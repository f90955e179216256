package errors

import stderrors "errors"

func as(err error, target any) bool {
	return stderrors.As(err, target)
}
