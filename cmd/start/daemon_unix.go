//go:build linux || darwin || freebsd || netbsd || openbsd

package start

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// listenFDEnv and metricsFDEnv name the descriptors of the sockets handed
// to a daemon child. ExtraFiles start at descriptor 3.
const (
	listenFDEnv  = "AESDSOCKET_LISTEN_FD"
	metricsFDEnv = "AESDSOCKET_METRICS_FD"
	listenFD     = 3
)

var stackDumpSignals = []os.Signal{syscall.SIGUSR1}

// inheritedListener returns the listener passed down by daemonize, or nil
// when the process was started directly.
func inheritedListener() (net.Listener, error) {
	return inheritedFromEnv(listenFDEnv)
}

// inheritedMetricsListener is inheritedListener for the metrics server.
func inheritedMetricsListener() (net.Listener, error) {
	return inheritedFromEnv(metricsFDEnv)
}

func inheritedFromEnv(env string) (net.Listener, error) {
	v := os.Getenv(env)
	if v == "" {
		return nil, nil
	}
	fd, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", env)
	}
	// children of this process must not take the descriptor as theirs
	if err = os.Unsetenv(env); err != nil {
		return nil, err
	}
	return listenerFromFD(uintptr(fd))
}

func listenerFile(ln net.Listener) (*os.File, error) {
	tl, ok := ln.(*net.TCPListener)
	if !ok {
		return nil, errors.Errorf("cannot daemonize with a %T", ln)
	}
	f, err := tl.File()
	if err != nil {
		return nil, errors.Wrap(err, "failed to duplicate the listening socket")
	}
	return f, nil
}

func listenerFromFD(fd uintptr) (net.Listener, error) {
	f := os.NewFile(fd, "listener")
	if f == nil {
		return nil, errors.Errorf("invalid listener descriptor %d", fd)
	}
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to use the inherited listener")
	}
	return ln, nil
}

// daemonize starts a detached copy of this process in a new session, hands
// it ln and metricsLn (which may be nil) and returns. The copy runs with /
// as working directory and its standard streams on /dev/null.
func daemonize(ln, metricsLn net.Listener, configPath string) error {
	defer ln.Close()
	f, err := listenerFile(ln)
	if err != nil {
		return err
	}
	defer f.Close()
	files := []*os.File{f}
	env := append(os.Environ(), listenFDEnv+"="+strconv.Itoa(listenFD))

	if metricsLn != nil {
		defer metricsLn.Close()
		var mf *os.File
		if mf, err = listenerFile(metricsLn); err != nil {
			return err
		}
		defer mf.Close()
		files = append(files, mf)
		env = append(env, metricsFDEnv+"="+strconv.Itoa(listenFD+1))
	}

	self, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "failed to locate the executable")
	}
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to resolve the configuration path")
	}

	child := exec.Command(self, "start", "--config", absConfig)
	child.Dir = "/"
	child.Env = env
	child.ExtraFiles = files
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	// nil standard streams are connected to /dev/null
	if err = child.Start(); err != nil {
		return errors.Wrap(err, "failed to start the daemon process")
	}
	log.Info("daemon started with pid %d", child.Process.Pid)
	return child.Process.Release()
}
