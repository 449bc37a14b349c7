package live_test

import (
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/verdict/internal/adapters/live"
)

func notice(eventID string) live.Notice {
	return live.Notice{EventID: eventID, Reason: live.ReasonScoreSubmitted, At: time.Now().UTC()}
}

func TestHub_WatchAndBroadcast(t *testing.T) {
	convey.Convey("Given a hub with one watcher", t, func() {
		hub := live.NewHub()
		ch, cancel := hub.Watch("ev-1")
		defer cancel()

		convey.Convey("When a notice for the watched event is broadcast", func() {
			hub.Broadcast(notice("ev-1"))

			convey.Convey("Then the watcher receives it", func() {
				select {
				case n := <-ch:
					convey.So(n.EventID, convey.ShouldEqual, "ev-1")
					convey.So(n.Reason, convey.ShouldEqual, live.ReasonScoreSubmitted)
				default:
					convey.So("expected a buffered notice", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When a notice for another event is broadcast", func() {
			hub.Broadcast(notice("ev-2"))

			convey.Convey("Then nothing is delivered", func() {
				select {
				case <-ch:
					convey.So("unexpected notice", convey.ShouldBeEmpty)
				default:
				}
			})
		})
	})
}

func TestHub_Cancel(t *testing.T) {
	convey.Convey("Given a watcher that disconnects", t, func() {
		hub := live.NewHub()
		ch, cancel := hub.Watch("ev-1")
		convey.So(hub.WatcherCount(), convey.ShouldEqual, 1)

		cancel()

		convey.Convey("Then the channel closes and the count drops", func() {
			_, open := <-ch
			convey.So(open, convey.ShouldBeFalse)
			convey.So(hub.WatcherCount(), convey.ShouldEqual, 0)
		})

		convey.Convey("Then cancelling twice is harmless", func() {
			convey.So(cancel, convey.ShouldNotPanic)
		})

		convey.Convey("Then broadcasting after cancel does not panic", func() {
			convey.So(func() { hub.Broadcast(notice("ev-1")) }, convey.ShouldNotPanic)
		})
	})
}

func TestHub_SlowWatcher(t *testing.T) {
	convey.Convey("Given a watcher with a single-slot buffer", t, func() {
		hub := live.NewHub(live.WithBufferSize(1))
		ch, cancel := hub.Watch("ev-1")
		defer cancel()

		convey.Convey("When more notices arrive than the buffer holds", func() {
			hub.Broadcast(notice("ev-1"))
			hub.Broadcast(notice("ev-1"))
			hub.Broadcast(notice("ev-1"))

			convey.Convey("Then the overflow is dropped, not blocking the writer", func() {
				received := 0
			drain:
				for {
					select {
					case <-ch:
						received++
					default:
						break drain
					}
				}
				convey.So(received, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestHub_ConcurrentWatchers(t *testing.T) {
	convey.Convey("Given watchers leaving while broadcasts are in flight", t, func() {
		hub := live.NewHub(live.WithBufferSize(1))

		cancels := make([]func(), 16)
		for i := range cancels {
			_, cancels[i] = hub.Watch("ev-1")
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				hub.Broadcast(notice("ev-1"))
			}
		}()
		go func() {
			defer wg.Done()
			for _, cancel := range cancels[8:] {
				cancel()
			}
		}()
		wg.Wait()

		convey.Convey("Then no send hits a closed channel and the count is exact", func() {
			convey.So(hub.WatcherCount(), convey.ShouldEqual, 8)
			for _, cancel := range cancels[:8] {
				cancel()
			}
			convey.So(hub.WatcherCount(), convey.ShouldEqual, 0)
		})
	})
}
