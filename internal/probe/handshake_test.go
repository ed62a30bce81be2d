package probe

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// startGreetingServer starts a listener that reads one SOCKS5 greeting and
// answers with the given selection bytes. The read greeting is sent to the
// returned channel so tests can assert on the offered methods.
func startGreetingServer(t *testing.T, selection []byte) (string, <-chan []byte) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	greetingCh := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		head := make([]byte, 2)
		if _, err := io.ReadFull(conn, head); err != nil {
			return
		}
		methods := make([]byte, int(head[1]))
		if _, err := io.ReadFull(conn, methods); err != nil {
			return
		}
		greetingCh <- append(head, methods...)

		_, _ = conn.Write(selection)
		// Hold the connection open until the client hangs up.
		_, _ = conn.Read(make([]byte, 1))
	}()

	return listener.Addr().String(), greetingCh
}

// TestNewHandshakeFilter tests the filter constructor defaults.
func TestNewHandshakeFilter(t *testing.T) {
	t.Parallel()

	t.Run("zero timeout falls back to default", func(t *testing.T) {
		t.Parallel()

		filter := NewHandshakeFilter(0)
		if filter.timeout != DefaultHandshakeTimeout {
			t.Errorf("timeout = %v, expected %v", filter.timeout, DefaultHandshakeTimeout)
		}
	})

	t.Run("explicit timeout is kept", func(t *testing.T) {
		t.Parallel()

		filter := NewHandshakeFilter(2 * time.Second)
		if filter.timeout != 2*time.Second {
			t.Errorf("timeout = %v, expected %v", filter.timeout, 2*time.Second)
		}
	})
}

// TestHandshakeFilterCheck tests the raw greeting exchange against mock servers.
func TestHandshakeFilterCheck(t *testing.T) {
	t.Parallel()

	t.Run("returns OK when server accepts no auth", func(t *testing.T) {
		t.Parallel()

		addr, _ := startGreetingServer(t, []byte{0x05, 0x00})
		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %v", status)
		}
	})

	t.Run("credentials add userpass to the offered methods", func(t *testing.T) {
		t.Parallel()

		addr, greetingCh := startGreetingServer(t, []byte{0x05, 0x02})
		filter := NewHandshakeFilter(5 * time.Second)

		ep := model.MustParseEndpoint(addr + ":scanner:hunter2")
		status := filter.Check(context.Background(), ep)
		if status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %v", status)
		}

		select {
		case greeting := <-greetingCh:
			expected := []byte{0x05, 0x02, 0x00, 0x02}
			if len(greeting) != len(expected) {
				t.Fatalf("greeting = %v, expected %v", greeting, expected)
			}
			for i := range expected {
				if greeting[i] != expected[i] {
					t.Fatalf("greeting = %v, expected %v", greeting, expected)
				}
			}
		case <-time.After(time.Second):
			t.Fatal("mock server never received the greeting")
		}
	})

	t.Run("returns NotSOCKS5 when userpass selected without credentials", func(t *testing.T) {
		t.Parallel()

		addr, _ := startGreetingServer(t, []byte{0x05, 0x02})
		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusNotSOCKS5 {
			t.Errorf("expected ProxyStatusNotSOCKS5, got %v", status)
		}
	})

	t.Run("returns NotSOCKS5 when server rejects all methods", func(t *testing.T) {
		t.Parallel()

		addr, _ := startGreetingServer(t, []byte{0x05, 0xFF})
		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusNotSOCKS5 {
			t.Errorf("expected ProxyStatusNotSOCKS5, got %v", status)
		}
	})

	t.Run("returns NotSOCKS5 for wrong protocol version", func(t *testing.T) {
		t.Parallel()

		addr, _ := startGreetingServer(t, []byte{0x04, 0x00})
		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusNotSOCKS5 {
			t.Errorf("expected ProxyStatusNotSOCKS5, got %v", status)
		}
	})

	t.Run("returns NotSOCKS5 for http server", func(t *testing.T) {
		t.Parallel()

		addr, _ := startGreetingServer(t, []byte("HTTP/1.1 200 OK\r\n\r\n"))
		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusNotSOCKS5 {
			t.Errorf("expected ProxyStatusNotSOCKS5, got %v", status)
		}
	})

	t.Run("returns CannotConnect for closed port", func(t *testing.T) {
		t.Parallel()

		filter := NewHandshakeFilter(5 * time.Second)

		status := filter.Check(context.Background(), model.MustParseEndpoint(freePortAddr(t)))
		if status != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", status)
		}
	})

	t.Run("returns Timeout for silent server", func(t *testing.T) {
		t.Parallel()

		addr := startBlackholeProxy(t)
		filter := NewHandshakeFilter(150 * time.Millisecond)

		status := filter.Check(context.Background(), model.MustParseEndpoint(addr))
		if status != ProxyStatusTimeout {
			t.Errorf("expected ProxyStatusTimeout, got %v", status)
		}
	})

	t.Run("returns Timeout for cancelled context", func(t *testing.T) {
		t.Parallel()

		filter := NewHandshakeFilter(5 * time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		status := filter.Check(ctx, model.MustParseEndpoint("127.0.0.1:1080"))
		if status != ProxyStatusTimeout {
			t.Errorf("expected ProxyStatusTimeout, got %v", status)
		}
	})
}

// TestHandshakeFilterEliminate tests terminal result construction for
// rejected candidates.
func TestHandshakeFilterEliminate(t *testing.T) {
	t.Parallel()

	filter := NewHandshakeFilter(time.Second)
	ep := model.MustParseEndpoint("192.0.2.10:1080")

	t.Run("rejected candidate becomes failed result", func(t *testing.T) {
		t.Parallel()

		result := filter.Eliminate(ep, ProxyStatusNotSOCKS5)
		if result.Working {
			t.Error("expected non-working result")
		}
		if result.Reason != model.FailureProtocolMismatch {
			t.Errorf("Reason = %v, expected %v", result.Reason, model.FailureProtocolMismatch)
		}
		if result.Err != ErrProxyNotSOCKS5.Error() {
			t.Errorf("Err = %q, expected %q", result.Err, ErrProxyNotSOCKS5.Error())
		}
	})

	t.Run("timeout status maps to timeout reason", func(t *testing.T) {
		t.Parallel()

		result := filter.Eliminate(ep, ProxyStatusTimeout)
		if result.Reason != model.FailureTimeout {
			t.Errorf("Reason = %v, expected %v", result.Reason, model.FailureTimeout)
		}
	})

	t.Run("OK status never fabricates a working result", func(t *testing.T) {
		t.Parallel()

		result := filter.Eliminate(ep, ProxyStatusOK)
		if result.Working {
			t.Error("pre-filter success must not mark an endpoint working")
		}
		if result.Reason != model.FailureNone {
			t.Errorf("Reason = %v, expected %v", result.Reason, model.FailureNone)
		}
	})
}
