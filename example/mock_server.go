package main

import (
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// StartMockFleet serves a set of fake websites that exercise every probe
// outcome:
//
//	/ok          always 200
//	/slow        200 after 1-3 seconds
//	/no-head     405 for HEAD, 200 for GET
//	/error       always 500
//	/flaky       flips between 200 and 503 every 20-60 seconds
//	/drop        closes the connection without a response
//
// Call this in a goroutine before starting NetShepherd.
func StartMockFleet(addr string) error {
	return http.ListenAndServe(addr, mockFleetHandler())
}

func mockFleetHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Duration(1000+rand.Intn(2000)) * time.Millisecond):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})

	mux.HandleFunc("/no-head", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("hello"))
	})

	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	var (
		mu     sync.Mutex
		up     = true
		flipAt = nextFlip()
	)
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if time.Now().After(flipAt) {
			up = !up
			flipAt = nextFlip()
			slog.Info("flaky site changed", "up", up)
		}
		healthy := up
		mu.Unlock()

		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/drop", func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			return
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetLinger(0)
		}
		_ = conn.Close()
	})

	return mux
}

// nextFlip schedules the next flaky change in 20-60 seconds.
func nextFlip() time.Time {
	return time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
}
