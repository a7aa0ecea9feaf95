package flow

import "errors"

// ErrResourceAlreadyOpened is returned (wrapped in a failing Observable)
// by FromResource when an AsyncBuffer's consumer side was already opened.
// A second TryOpenProducer call only reports false.
var ErrResourceAlreadyOpened = errors.New("flow: resource already opened")
