package chat_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pelusa-v/speakset/internal/chat"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu       sync.Mutex
	frames   []frame
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b, ok := <-f.incoming:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, b, nil
	case <-f.closed:
		return 0, nil, io.EOF
	}
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{kind: kind, data: data})
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) written() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.frames...)
}

var _ = Describe("Hub", func() {
	var (
		hub    *chat.Hub
		cancel context.CancelFunc
		counts chan int
	)

	BeforeEach(func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		counts = make(chan int, 16)
		hub = chat.NewHub()
		hub.OnSubscribers = func(n int) { counts <- n }
		go hub.Start(ctx)
		DeferCleanup(func() {
			cancel()
			Eventually(hub.Done()).Should(BeClosed())
		})
	})

	It("delivers published messages only to subscribers of that channel", func() {
		random := chat.NewClient(hub, "text:random", newFakeConn())
		general := chat.NewClient(hub, chat.DefaultChannel, newFakeConn())
		Expect(hub.Register(random)).To(BeTrue())
		Expect(hub.Register(general)).To(BeTrue())
		Eventually(func() int { return hub.Subscribers("text:random") }).Should(Equal(1))

		hub.Publish("text:random", newMessage("m1", "alex", "hi"))

		var data []byte
		Eventually(random.Send).Should(Receive(&data))
		var ev chat.Event
		Expect(json.Unmarshal(data, &ev)).To(Succeed())
		Expect(ev.Channel).To(Equal("text:random"))
		Expect(ev.Message.ID).To(Equal("m1"))
		Expect(ev.Message.Text).To(Equal("hi"))

		Consistently(general.Send, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("closes the client queue on unregister and reports the count", func() {
		client := chat.NewClient(hub, "text:random", newFakeConn())
		Expect(hub.Register(client)).To(BeTrue())
		Eventually(counts).Should(Receive(Equal(1)))

		hub.Unregister(client)
		Eventually(client.Send).Should(BeClosed())
		Eventually(counts).Should(Receive(Equal(0)))

		// a second unregister is harmless
		hub.Unregister(client)
	})

	It("streams frames through the pumps until the peer leaves", func() {
		conn := newFakeConn()
		client := chat.NewClient(hub, "text:random", conn)
		Expect(hub.Register(client)).To(BeTrue())
		go client.WritePump()
		go client.ReadPump()
		Eventually(func() int { return hub.Subscribers("text:random") }).Should(Equal(1))

		hub.Publish("text:random", newMessage("m1", "alex", "hi"))
		Eventually(func() int { return len(conn.written()) }).Should(Equal(1))
		Expect(conn.written()[0].kind).To(Equal(websocket.TextMessage))

		close(conn.incoming)
		Eventually(func() int { return hub.Subscribers("text:random") }).Should(Equal(0))
		Eventually(func() int { return len(conn.written()) }).Should(Equal(2))
		Expect(conn.written()[1].kind).To(Equal(websocket.CloseMessage))
	})

	It("refuses registrations once stopped", func() {
		cancel()
		Eventually(hub.Done()).Should(BeClosed())

		client := chat.NewClient(hub, "text:random", newFakeConn())
		Expect(hub.Register(client)).To(BeFalse())
	})

	It("never blocks publishers when nobody drains the queue", func() {
		stopped := chat.NewHub()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 1000; i++ {
				stopped.Publish("text:random", newMessage("m", "alex", "hi"))
			}
		}()
		Eventually(done).Should(BeClosed())
	})
})
