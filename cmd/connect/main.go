package connect

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend/client"
)

const (
	// Command
	// -------------.
	usage   = "connect [record]"
	short   = "Send one record or seek directive to an aesdsocket server"
	long    = "This command sends one line to an aesdsocket server and prints the log it streams back. Without a record argument the line is read from standard input"
	example = "aesdsocket connect --addr localhost:9000 hello\n  aesdsocket connect --seek 3,1"

	// Flags.
	// -------------
	// Network Address.
	addrFlag    = "addr"
	defaultAddr = "localhost:9000"
	addrDesc    = "network address of the server at \"hostname:port\""
	// Seek directive.
	seekFlag = "seek"
	seekDesc = "send a seek directive \"index,offset\" instead of a record"
	// Dial retries.
	retriesFlag    = "retries"
	defaultRetries = 0
	retriesDesc    = "how many times a refused connection is retried"
)

var (
	// Cmd is the connect command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		SuggestFor: []string{"send", "conn"},
		Example:    example,
		Args:       validateArgs,
		RunE:       executeConnect,
	}

	// addr set via flag for the server address.
	addr string
	// seek set via flag for a seek directive.
	seek string
	// retries set via flag for dial retries.
	retries int
)

func init() {
	Cmd.Flags().StringVarP(&addr, addrFlag, "a", defaultAddr, addrDesc)
	Cmd.Flags().StringVarP(&seek, seekFlag, "s", "", seekDesc)
	Cmd.Flags().IntVarP(&retries, retriesFlag, "r", defaultRetries, retriesDesc)
}

// validateArgs returns an error that prevents cmd execution if
// the custom validation fails.
func validateArgs(_ *cobra.Command, args []string) error {
	if seek != "" && len(args) > 0 {
		return errors.New("a record cannot be sent together with --seek")
	}
	return nil
}

// parseSeek parses "index,offset".
func parseSeek(s string) (index, offset int, err error) {
	const fields = 2
	parts := strings.Split(s, ",")
	if len(parts) != fields {
		return 0, 0, errors.Errorf("invalid seek %q, need \"index,offset\"", s)
	}
	if index, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid seek index %q", parts[0])
	}
	if offset, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid seek offset %q", parts[1])
	}
	if index < 0 || offset < 0 {
		return 0, 0, errors.Errorf("invalid seek %q, values must not be negative", s)
	}
	return index, offset, nil
}

// executeConnect implements the connect command.
func executeConnect(cmd *cobra.Command, args []string) error {
	c := client.NewClient(addr)
	c.DialRetries = retries
	ctx := context.Background()

	var (
		resp []byte
		err  error
	)
	switch {
	case seek != "":
		index, offset, perr := parseSeek(seek)
		if perr != nil {
			return perr
		}
		cmd.SilenceUsage = true
		resp, err = c.SeekTo(ctx, index, offset)
	case len(args) > 0:
		cmd.SilenceUsage = true
		resp, err = c.Send(ctx, []byte(strings.Join(args, " ")))
	default:
		cmd.SilenceUsage = true
		line, rerr := bufio.NewReader(cmd.InOrStdin()).ReadBytes('\n')
		if rerr != nil && len(line) == 0 {
			return errors.Wrap(rerr, "failed to read a record from standard input")
		}
		resp, err = c.Send(ctx, line)
	}
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(resp)
	return err
}
