// Package idgen derives tokens and message ids. The helper executable in
// cmd/speakset-native runs this derivation; Local runs it in-process.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/pelusa-v/speakset/internal/oracle"
)

var (
	ErrUnknownKind = errors.New("idgen: unknown kind")
	ErrMissingArgs = errors.New("idgen: at least one value is required")
)

// Derive builds the identifier for kind. The wall clock, the snowflake id
// and the random nonce keep repeated inputs from colliding, including across
// helper processes that happen to share a snowflake node.
//
//	token      -> speakset.<digest>.native   (digest of username)
//	message_id -> msg_<digest>               (digest of all args joined by ':')
func Derive(kind oracle.Kind, args []string, now time.Time, seq snowflake.ID, nonce uuid.UUID) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingArgs
	}
	millis := strconv.FormatInt(now.UnixMilli(), 10)

	switch kind {
	case oracle.KindToken:
		return "speakset." + digest(args[0], millis, seq.String(), nonce.String()) + ".native", nil
	case oracle.KindMessageID:
		return "msg_" + digest(strings.Join(args, ":"), millis, seq.String(), nonce.String()), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func digest(parts ...string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, ":")), 16)
}

// Local is an in-process oracle.Oracle running Derive directly.
type Local struct {
	node *snowflake.Node
	now  func() time.Time
}

func NewLocal(nodeID int64) (*Local, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: snowflake node %d: %w", nodeID, err)
	}
	return &Local{node: node, now: time.Now}, nil
}

func (l *Local) Generate(_ context.Context, kind oracle.Kind, args ...string) (string, error) {
	return Derive(kind, args, l.now(), l.node.Generate(), uuid.New())
}
