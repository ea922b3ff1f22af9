// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"

	"github.com/ik5/samplekit/decode"
	"github.com/ik5/samplekit/internal/config"
	"github.com/ik5/samplekit/storage"
)

const usage = `usage: samplekit <command> [flags] [args]

commands:
  info      <file>...         print format and length
  waveform  [-n N] <file>...  print N peak values per file
  render    -o out.wav <file> render with effects and write WAV
  package   <file>            bundle a file and its settings into a project
  extract   [-d dir] <zip>    unpack the audio of a project
  import    <file>...         import into the workspace library
  library   [-watch]          list the library
  preview   <file>            play a short preview with effects
`

func main() {
	ctx := logger.WithContext(context.Background())

	if err := doMain(ctx, os.Args[1:], os.Stdout); err != nil {
		logger.Ef(ctx, "run err %+v", err)
		os.Exit(1)
	}
}

func doMain(ctx context.Context, args []string, out io.Writer) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	conf := config.Load()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for s := range sc {
			logger.Tf(ctx, "got signal %v", s)
			cancel()
		}
	}()

	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("no command")
	}

	ws, err := storage.NewWorkspace(conf.Workspace)
	if err != nil {
		return errors.Wrapf(err, "open workspace")
	}

	a := &app{conf: conf, ws: ws, dec: decode.New(nil), out: out}
	return a.run(ctx, args[0], args[1:])
}
