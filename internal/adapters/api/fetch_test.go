package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/runboard/internal/adapters/api"
	. "github.com/smartystreets/goconvey/convey"
)

// sleepRecorder captures retry waits instead of blocking.
type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func TestFetch_Success(t *testing.T) {
	Convey("Given a server returning an enveloped payload", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [{"id": "r1"}], "pagination": {"size": 1}}`))
		}))
		defer srv.Close()

		client := api.New(api.WithBaseURL(srv.URL))

		Convey("When fetching without a cache file", func() {
			data, err := client.Fetch(context.Background(), srv.URL+"/whatever", "")

			Convey("Then the data field is extracted", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `[{"id": "r1"}]`)
			})
		})

		Convey("When fetching with a cache file", func() {
			cache := filepath.Join(t.TempDir(), "runs.json")
			_, err := client.Fetch(context.Background(), srv.URL+"/whatever", cache)

			Convey("Then the extracted payload is written to the cache", func() {
				So(err, ShouldBeNil)
				content, rerr := os.ReadFile(cache)
				So(rerr, ShouldBeNil)
				So(string(content), ShouldContainSubstring, `"id": "r1"`)
			})
		})
	})

	Convey("Given a server returning a payload without a data field", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "whole", "name": "body"}`))
		}))
		defer srv.Close()

		client := api.New(api.WithBaseURL(srv.URL))

		Convey("When fetching", func() {
			data, err := client.Fetch(context.Background(), srv.URL, "")

			Convey("Then the whole body is returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"id": "whole"`)
			})
		})
	})
}

func TestFetch_RateLimit(t *testing.T) {
	Convey("Given a server that rate limits the first attempt", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"data": {"ok": true}}`))
		}))
		defer srv.Close()

		rec := &sleepRecorder{}
		client := api.New(api.WithBaseURL(srv.URL), api.WithSleep(rec.sleep))

		Convey("When fetching", func() {
			data, err := client.Fetch(context.Background(), srv.URL, "")

			Convey("Then exactly one sleep of Retry-After seconds occurs", func() {
				So(err, ShouldBeNil)
				So(rec.slept, ShouldResemble, []time.Duration{3 * time.Second})
			})

			Convey("And the second attempt's payload is returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"ok": true}`)
				So(attempts, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a 429 with an unparsable Retry-After", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.Header().Set("Retry-After", "soon")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"data": []}`))
		}))
		defer srv.Close()

		rec := &sleepRecorder{}
		client := api.New(api.WithBaseURL(srv.URL), api.WithSleep(rec.sleep))

		Convey("When fetching", func() {
			_, err := client.Fetch(context.Background(), srv.URL, "")

			Convey("Then the wait defaults to one second", func() {
				So(err, ShouldBeNil)
				So(rec.slept, ShouldResemble, []time.Duration{1 * time.Second})
			})
		})
	})
}

func TestFetch_Backoff(t *testing.T) {
	Convey("Given a server that fails twice before succeeding", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts <= 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"data": "fine"}`))
		}))
		defer srv.Close()

		rec := &sleepRecorder{}
		client := api.New(
			api.WithBaseURL(srv.URL),
			api.WithSleep(rec.sleep),
			api.WithBackoff(2*time.Second),
			api.WithMaxRetries(2),
		)

		Convey("When fetching", func() {
			data, err := client.Fetch(context.Background(), srv.URL, "")

			Convey("Then waits grow linearly with the attempt index", func() {
				So(err, ShouldBeNil)
				So(rec.slept, ShouldResemble, []time.Duration{2 * time.Second, 4 * time.Second})
			})

			Convey("And the final payload is returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `"fine"`)
			})
		})
	})
}

func TestFetch_CacheFallback(t *testing.T) {
	Convey("Given a server that always fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		rec := &sleepRecorder{}
		client := api.New(api.WithBaseURL(srv.URL), api.WithSleep(rec.sleep), api.WithMaxRetries(1))

		Convey("When a cache file with previous content exists", func() {
			cache := filepath.Join(t.TempDir(), "stale.json")
			So(os.WriteFile(cache, []byte(`[{"id": "cached"}]`), 0o644), ShouldBeNil)

			data, err := client.Fetch(context.Background(), srv.URL, cache)

			Convey("Then the cached content is returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `[{"id": "cached"}]`)
			})
		})

		Convey("When no cache file was supplied", func() {
			_, err := client.Fetch(context.Background(), srv.URL, "")

			Convey("Then the fetch fails with the sentinel kind", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, api.ErrFetchFailed), ShouldBeTrue)
			})
		})

		Convey("When the supplied cache file does not exist", func() {
			_, err := client.Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "absent.json"))

			Convey("Then the fetch fails with the sentinel kind", func() {
				So(errors.Is(err, api.ErrFetchFailed), ShouldBeTrue)
			})
		})

		Convey("When the cache file holds invalid JSON", func() {
			cache := filepath.Join(t.TempDir(), "corrupt.json")
			So(os.WriteFile(cache, []byte("{broken"), 0o644), ShouldBeNil)

			_, err := client.Fetch(context.Background(), srv.URL, cache)

			Convey("Then the fetch fails rather than returning garbage", func() {
				So(errors.Is(err, api.ErrFetchFailed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a server that is unreachable", t, func() {
		rec := &sleepRecorder{}
		client := api.New(api.WithSleep(rec.sleep), api.WithMaxRetries(1), api.WithTimeout(time.Second))

		Convey("When fetching a closed port", func() {
			_, err := client.Fetch(context.Background(), "http://127.0.0.1:1/none", "")

			Convey("Then the transport error is wrapped in the sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, api.ErrFetchFailed), ShouldBeTrue)
			})

			Convey("And one retry wait happened", func() {
				So(len(rec.slept), ShouldEqual, 1)
			})
		})
	})
}
