// itemstore serves an in-memory item store for running duallist locally.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/box"
	"github.com/fulldump/goconfig"
	"golang.org/x/sync/errgroup"

	"duallist/internal/clock"
	"duallist/internal/itemstore"
)

func main() {

	c := itemstore.Default()
	goconfig.Read(&c)

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	s := itemstore.New(clock.Real(), c.Options())

	b := itemstore.Build(s)
	if c.AccessLog {
		b.WithInterceptors(
			itemstore.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		)
	}
	b.WithInterceptors(
		itemstore.PrettyErrorInterceptor,
		itemstore.RecoverFromPanic,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr, "with", c.Seed, "items")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		fmt.Println("Shutting down")
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(1)
	}
}
