package chat

import "errors"

var (
	// ErrTransient covers network failures and 5xx answers from either the platform or the generator.
	ErrTransient = errors.New("transient platform error")
	// ErrRateLimited means the generation service refused the call because of quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrOverloaded means the generation service is temporarily overloaded and the call may be retried.
	ErrOverloaded = errors.New("service overloaded")
	// ErrConfiguration is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedResponse marks generated text that was empty or stripped to nothing.
	ErrMalformedResponse = errors.New("malformed response")
)

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func IsOverloaded(err error) bool {
	return errors.Is(err, ErrOverloaded)
}
