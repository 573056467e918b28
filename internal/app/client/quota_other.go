//go:build !unix

package client

import "errors"

func availableBytes(string) (int64, error) {
	return 0, errors.New("filesystem statistics are not supported on this platform")
}
