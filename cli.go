package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"floc/rugs/rugs"
)

const (
	DELETE_USAGE string = "usage: delete NAME"
	RELOAD_USAGE string = "usage: reload config"
)

// cli handlers
//
// These should all follow the cmdHandlerFunc type (func([]string) string).

func (e *env) commands() cmdHandler {
	c := newCmdHandler()
	c.register("stats", e.stats)
	c.register("list", e.list)
	c.register("delete", e.remove)
	c.register("reload", e.reload)
	c.register("levels", levelList)
	return c
}

func (e *env) stats(args []string) string {
	return fmt.Sprintf("up %s, encoded %d, decoded %d, stored %d",
		time.Since(e.started).Round(time.Second), e.encoded.Load(), e.decoded.Load(), e.stored.Load())
}

// list stored images
func (e *env) list(args []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	names, err := e.store.list(ctx)
	if err != nil {
		errorlog.Printf("while listing images: %v", err)
		return err.Error()
	}

	return fmt.Sprintf("%d images %v", len(names), names)
}

func (e *env) remove(args []string) string {
	if len(args) != 1 {
		return DELETE_USAGE
	}

	name := args[0]
	if !name_match.MatchString(name) {
		return fmt.Sprintf("%s is not an image name", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.store.del(ctx, name); err != nil {
		errorlog.Printf("while deleting %s: %v", name, err)
		return err.Error()
	}

	return fmt.Sprintf("deleted %s", name)
}

// reload config
func (e *env) reload(args []string) string {
	if len(args) != 1 {
		return RELOAD_USAGE
	}

	switch args[0] {
	case "config":
		if err := e.reload_config(); err != nil {
			errorlog.Printf("reload_config: %v", err)
			return "internal error; check logs (reload_config)"
		}
		return "ok"

	default:
		return RELOAD_USAGE
	}
}

func levelList(args []string) string {
	var s []string
	for _, l := range rugs.Levels() {
		s = append(s, fmt.Sprintf("%v=%d", l, l.Budget()))
	}
	return strings.Join(s, " ")
}
