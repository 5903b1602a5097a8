package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"openhours/internal/config"
	"openhours/internal/domain"
	"openhours/internal/facility"
	"openhours/internal/hours"
	"openhours/internal/store"
)

var cest = time.FixedZone("CEST", 2*3600)

func testRegistry() *facility.Registry {
	rules := store.StaticSource{{
		ID:        "weekday",
		ValidFrom: time.Date(2014, 4, 30, 0, 0, 0, 0, cest),
		ValidTo:   time.Date(2014, 7, 8, 0, 0, 0, 0, cest),
		StartTime: "14:00",
		EndTime:   "20:00",
		Weekdays:  domain.NewWeekdaySet(domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday),
	}}
	broken := store.StaticSource{{
		ID:        "broken",
		ValidFrom: time.Date(2014, 4, 30, 0, 0, 0, 0, cest),
		StartTime: "2pm",
		EndTime:   "20:00",
		Weekdays:  domain.NewWeekdaySet(domain.Tuesday),
	}}
	unreachable := hours.HolidayFunc(func(time.Time) (bool, error) {
		return false, errors.New("calendar unavailable")
	})
	return facility.NewRegistry(
		facility.New("museum", "City Museum", cest, rules, nil, nil),
		facility.New("broken", "", cest, broken, nil, nil),
		facility.New("exchange", "", cest, rules, unreachable, nil),
	)
}

func dialBufconn(t *testing.T, svc *HoursService) *HoursClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	svc.RegisterGRPC(gs)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewHoursClient(conn)
}

func TestHoursServiceResolve(t *testing.T) {
	svc := NewHoursService(testRegistry(), nil)
	svc.now = func() time.Time { return time.Date(2014, 5, 6, 15, 0, 0, 0, cest) }
	client := dialBufconn(t, svc)
	ctx := context.Background()

	got, err := client.Resolve(ctx, "museum", time.Date(2014, 5, 6, 8, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Status != "OPENING_SOON" || got.Weekday != "TUESDAY" {
		t.Errorf("Resolve() = %s/%s, want OPENING_SOON/TUESDAY", got.Status, got.Weekday)
	}
	if got.OpensAt != "2014-05-06T14:00:00+02:00" {
		t.Errorf("OpensAt = %q", got.OpensAt)
	}
	if got.Text != "Today, 06.05.2014 at 14:00" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Rule == nil || got.Rule.ID != "weekday" {
		t.Errorf("Rule = %+v", got.Rule)
	}

	// Zero instant uses the server clock.
	got, err = client.Resolve(ctx, "museum", time.Time{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Open || got.ClosesAt != "2014-05-06T20:00:00+02:00" {
		t.Errorf("Resolve(now) = %+v, want open until 20:00", got)
	}
}

func TestHoursServiceErrors(t *testing.T) {
	svc := NewHoursService(testRegistry(), nil)
	svc.now = func() time.Time { return time.Date(2014, 5, 6, 10, 0, 0, 0, cest) }
	client := dialBufconn(t, svc)

	cases := []struct {
		name     string
		facility string
		want     codes.Code
	}{
		{"missing facility", "", codes.InvalidArgument},
		{"unknown facility", "zoo", codes.NotFound},
		{"invalid rule", "broken", codes.FailedPrecondition},
		{"holiday lookup", "exchange", codes.Unavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := client.Resolve(context.Background(), c.facility, time.Time{})
			if got := status.Code(err); got != c.want {
				t.Errorf("code = %v, want %v (err %v)", got, c.want, err)
			}
		})
	}
}

func TestServerServeAndShutdown(t *testing.T) {
	reg := testRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := NewServer(&config.Config{}, handler, NewHoursService(reg, nil), nil)

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	grpcLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, httpLn, grpcLn) }()

	resp, err := http.Get("http://" + httpLn.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("HTTP status = %d, want 418", resp.StatusCode)
	}

	conn, err := Dial(grpcLn.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	got, err := NewHoursClient(conn).Resolve(context.Background(), "museum", time.Date(2014, 5, 6, 15, 0, 0, 0, cest))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Status != "OPEN" {
		t.Errorf("Status = %q, want OPEN", got.Status)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

