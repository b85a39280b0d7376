//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package start

import (
	"net"
	"os"

	"github.com/pkg/errors"
)

var stackDumpSignals []os.Signal

func inheritedListener() (net.Listener, error) {
	return nil, nil
}

func inheritedMetricsListener() (net.Listener, error) {
	return nil, nil
}

func daemonize(_, _ net.Listener, _ string) error {
	return errors.New("daemon mode is not supported on this platform")
}
