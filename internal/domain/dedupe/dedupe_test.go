package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/logoduel/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetDeduper(t *testing.T) {
	Convey("Given a new deduper", t, func() {
		Convey("When created with default options", func() {
			d := dedupe.NewSetDeduper()

			Convey("Then it starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When created with a pre-sized capacity", func() {
			d := dedupe.NewSetDeduper(dedupe.WithInitialCapacity(1000))

			Convey("Then it still starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording keys", func() {
			d := dedupe.NewSetDeduper()

			Convey("And the key is new", func() {
				seen := d.SeenAndRecord(context.Background(), "1000|alpha|beta|v1")

				Convey("Then it is recorded and reported as unseen", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key was recorded before", func() {
				d.SeenAndRecord(context.Background(), "1000|alpha|beta|v1")
				seen := d.SeenAndRecord(context.Background(), "1000|alpha|beta|v1")

				Convey("Then it is reported as seen without growing the set", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And many distinct keys are recorded", func() {
				keys := []string{"a", "b", "c", "d", "e"}
				for _, key := range keys {
					So(d.SeenAndRecord(context.Background(), key), ShouldBeFalse)
				}

				Convey("Then every one is remembered", func() {
					So(d.Size(), ShouldEqual, int64(len(keys)))
					for _, key := range keys {
						So(d.SeenAndRecord(context.Background(), key), ShouldBeTrue)
					}
				})
			})
		})

		Convey("When recording from many goroutines", func() {
			d := dedupe.NewSetDeduper()

			var wg sync.WaitGroup
			for worker := 0; worker < 8; worker++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("key-%d", i))
					}
				}()
			}
			wg.Wait()

			Convey("Then each distinct key is counted once", func() {
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
