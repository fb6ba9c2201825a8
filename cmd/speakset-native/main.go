// Command speakset-native is the identifier helper the server builds and
// runs on demand:
//
//	speakset-native <token|message_id> <value...>
//
// It prints one identifier on stdout and exits 0, or prints a diagnostic on
// stderr and exits 1.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/pelusa-v/speakset/internal/idgen"
	"github.com/pelusa-v/speakset/internal/oracle"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: speakset-native <token|message_id> <value...>")
		os.Exit(1)
	}

	// pids only pick the node; the nonce separates helpers sharing one
	node, err := snowflake.NewNode(int64(os.Getpid()) % 1024)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	kind := oracle.Kind(os.Args[1])
	id, err := idgen.Derive(kind, os.Args[2:], time.Now(), node.Generate(), uuid.New())
	if errors.Is(err, idgen.ErrUnknownKind) {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(id)
}
