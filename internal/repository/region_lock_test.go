package repository

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/geo"
)

func TestRegionLockKeys(t *testing.T) {
	Convey("Given the advisory lock key grid", t, func() {
		center := geo.Coordinate{Lat: 23.2599, Lng: 77.4126}

		Convey("Keys come back sorted and deduplicatable", func() {
			keys := regionLockKeys(domain.CategoryPothole, center, 25)
			So(len(keys), ShouldBeGreaterThan, 0)
			for i := 1; i < len(keys); i++ {
				So(keys[i-1], ShouldBeLessThan, keys[i])
			}
		})

		Convey("Two submissions within the threshold always contend", func() {
			// Points within 25 m of each other must share at least one
			// lock key, even when they straddle a cell boundary.
			offsets := []geo.Coordinate{
				{Lat: center.Lat + 24.0/111194.9267, Lng: center.Lng},
				{Lat: center.Lat - 24.0/111194.9267, Lng: center.Lng},
				{Lat: center.Lat, Lng: center.Lng + 0.0002},
				{Lat: center.Lat + 12.0/111194.9267, Lng: center.Lng - 0.0001},
			}
			base := regionLockKeys(domain.CategoryPothole, center, 25)
			for _, other := range offsets {
				if geo.DistanceMeters(center, other) > 25 {
					continue
				}
				otherKeys := regionLockKeys(domain.CategoryPothole, other, 25)
				So(sharesKey(base, otherKeys), ShouldBeTrue)
			}
		})

		Convey("Submissions straddling the antimeridian contend", func() {
			east := geo.Coordinate{Lat: 0, Lng: 179.99999}
			west := geo.Coordinate{Lat: 0, Lng: -179.99999}
			So(geo.DistanceMeters(east, west), ShouldBeLessThan, 25)

			eastKeys := regionLockKeys(domain.CategoryPothole, east, 25)
			westKeys := regionLockKeys(domain.CategoryPothole, west, 25)
			So(sharesKey(eastKeys, westKeys), ShouldBeTrue)
		})

		Convey("Longitude 180 and -180 map to the same cells", func() {
			atPlus := regionLockKeys(domain.CategoryPothole, geo.Coordinate{Lat: 0, Lng: 180}, 25)
			atMinus := regionLockKeys(domain.CategoryPothole, geo.Coordinate{Lat: 0, Lng: -180}, 25)
			So(sharesKey(atPlus, atMinus), ShouldBeTrue)
		})

		Convey("Different categories never contend for the same keys", func() {
			pothole := regionLockKeys(domain.CategoryPothole, center, 25)
			garbage := regionLockKeys(domain.CategoryGarbage, center, 25)
			So(sharesKey(pothole, garbage), ShouldBeFalse)
		})
	})
}

func sharesKey(a, b []int64) bool {
	seen := make(map[int64]struct{}, len(a))
	for _, key := range a {
		seen[key] = struct{}{}
	}
	for _, key := range b {
		if _, ok := seen[key]; ok {
			return true
		}
	}
	return false
}
