package scoring_test

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/JonMunkholm/swimscore/internal/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intp(v int) *int { return &v }

func mustTables(t *testing.T, entries ...scoring.Entry) *scoring.Tables {
	t.Helper()
	tables, err := scoring.NewTables(entries)
	if err != nil {
		t.Fatalf("NewTables() error = %v", err)
	}
	return tables
}

func TestEngine_ClampPolicy(t *testing.T) {
	Convey("Given a race table {41.23: 1000, 43.56: 950} for 10 year old women", t, func() {
		tables := mustTables(t, scoring.Entry{
			Age: 10, Gender: scoring.Women, Event: "50 Freestyle (SCY)",
			Points: []scoring.Point{{Value: 41.23, Points: 1000}, {Value: 43.56, Points: 950}},
		})
		engine := scoring.New(tables, scoring.WithLogger(quietLogger()))
		key := "Women's 50 Freestyle (SCY)"

		Convey("A time faster than the fastest entry is clamped to its points", func() {
			So(engine.Points(key, 40.0, intp(10), nil), ShouldEqual, 1000)
		})

		Convey("Tabled times return their points exactly", func() {
			So(engine.Points(key, 41.23, intp(10), nil), ShouldEqual, 1000)
			So(engine.Points(key, 43.56, intp(10), nil), ShouldEqual, 950)
		})

		Convey("Times in between are interpolated linearly", func() {
			mid := (41.23 + 43.56) / 2
			So(engine.Points(key, mid, intp(10), nil), ShouldAlmostEqual, 975, 1e-9)
		})

		Convey("One second slower than the slowest entry costs 10 points", func() {
			So(engine.Points(key, 44.56, intp(10), nil), ShouldAlmostEqual, 940, 1e-9)
		})

		Convey("Far slower times floor at zero", func() {
			So(engine.Points(key, 243.56, intp(10), nil), ShouldEqual, 0)
		})

		Convey("Points never increase as the time gets slower", func() {
			prev := engine.Points(key, 30, intp(10), nil)
			for v := 30.0; v < 160; v += 0.37 {
				p := engine.Points(key, v, intp(10), nil)
				So(p, ShouldBeLessThanOrEqualTo, prev)
				So(p, ShouldBeGreaterThanOrEqualTo, 0)
				prev = p
			}
		})

		Convey("Zero and negative values score nothing", func() {
			So(engine.Points(key, 0, intp(10), nil), ShouldEqual, 0)
			So(engine.Points(key, -3, intp(10), nil), ShouldEqual, 0)
		})
	})
}

func TestEngine_ScoreCurves(t *testing.T) {
	Convey("Given a dryland table where points rise with the score", t, func() {
		tables := mustTables(t, scoring.Entry{
			Age: 9, Gender: scoring.Men, Event: "Chin-Ups",
			Points: []scoring.Point{{Value: 2, Points: 200}, {Value: 10, Points: 600}, {Value: 20, Points: 1000}},
		})
		engine := scoring.New(tables, scoring.WithLogger(quietLogger()))

		Convey("Scores above the best entry are clamped", func() {
			So(engine.Points("Men's Chin-Ups", 25, intp(9), nil), ShouldEqual, 1000)
		})

		Convey("Scores below the worst entry are penalized", func() {
			So(engine.Points("Men's Chin-Ups", 1, intp(9), nil), ShouldAlmostEqual, 190, 1e-9)
		})

		Convey("Points never decrease as the score grows", func() {
			prev := 0.0
			for v := 0.5; v < 30; v += 0.5 {
				p := engine.Points("Men's Chin-Ups", v, intp(9), nil)
				So(p, ShouldBeGreaterThanOrEqualTo, prev)
				prev = p
			}
		})

		Convey("Header spelling variants share the canonical table", func() {
			for _, key := range []string{"Men's Chin-ups", "Men's chin up", "Men's Chin-Up (reps)", "Mixed Chin-Ups"} {
				So(engine.Points(key, 10, intp(9), nil), ShouldEqual, 600)
			}
		})
	})
}

func TestEngine_ExtrapolatePolicy(t *testing.T) {
	Convey("Given the extrapolate policy", t, func() {
		tables := mustTables(t, scoring.Entry{
			Age: scoring.OpenAge, Gender: scoring.Men, Event: "100 Butterfly (LCM)",
			Points: []scoring.Point{{Value: 60, Points: 900}, {Value: 70, Points: 700}},
		})
		engine := scoring.New(tables, scoring.WithPolicy(scoring.PolicyExtrapolate), scoring.WithLogger(quietLogger()))
		key := "Men's 100 Butterfly (LCM)"

		Convey("Faster times extend the first segment", func() {
			So(engine.Points(key, 55, intp(20), nil), ShouldAlmostEqual, 1000, 1e-9)
		})

		Convey("Slower times extend the last segment and floor at zero", func() {
			So(engine.Points(key, 75, intp(20), nil), ShouldAlmostEqual, 600, 1e-9)
			So(engine.Points(key, 200, intp(20), nil), ShouldEqual, 0)
		})
	})
}

func TestEngine_SinglePointCurve(t *testing.T) {
	Convey("Given a one point table", t, func() {
		tables := mustTables(t, scoring.Entry{
			Age: 12, Gender: scoring.Women, Event: "Dips",
			Points: []scoring.Point{{Value: 10, Points: 500}},
		})
		engine := scoring.New(tables, scoring.WithLogger(quietLogger()))

		Convey("Every positive value scores the constant", func() {
			So(engine.Points("Women's Dips", 1, intp(12), nil), ShouldEqual, 500)
			So(engine.Points("Women's Dips", 10, intp(12), nil), ShouldEqual, 500)
			So(engine.Points("Women's Dips", 99, intp(12), nil), ShouldEqual, 500)
		})
	})
}

func TestEngine_Misses(t *testing.T) {
	Convey("Given an engine with no tables", t, func() {
		var mu sync.Mutex
		var misses []string
		engine := scoring.New(nil,
			scoring.WithLogger(quietLogger()),
			scoring.WithMissObserver(func(key string, age int) {
				mu.Lock()
				defer mu.Unlock()
				misses = append(misses, key)
			}),
		)

		Convey("A missing event key scores zero without failing", func() {
			So(engine.Points("Women's 1600 Freestyle (LCM)", 500.0, intp(10), nil), ShouldEqual, 0)
			So(misses, ShouldResemble, []string{"Women's 1600 Freestyle (LCM)"})
		})

		Convey("Malformed keys score zero", func() {
			So(engine.Points("", 30, nil, nil), ShouldEqual, 0)
			So(engine.Points("Boys 50 Freestyle (SCY)", 30, nil, nil), ShouldEqual, 0)
			So(engine.Points("Men's", 30, nil, nil), ShouldEqual, 0)
			So(len(misses), ShouldEqual, 3)
		})

		Convey("Lookup reports the miss as ErrNoTable", func() {
			pts, err := engine.Lookup("Men's Chin-Ups", 8, intp(12), nil)
			So(pts, ShouldEqual, 0)
			So(errors.Is(err, scoring.ErrNoTable), ShouldBeTrue)
			So(misses, ShouldBeEmpty)

			pts, err = engine.Lookup("Men's Chin-Ups", 0, intp(12), nil)
			So(err, ShouldBeNil)
			So(pts, ShouldEqual, 0)
		})
	})

	Convey("Given tables without the requested event", t, func() {
		tables := mustTables(t, scoring.Entry{
			Age: 10, Gender: scoring.Women, Event: "50 Freestyle (SCY)",
			Points: []scoring.Point{{Value: 30, Points: 900}, {Value: 40, Points: 700}},
		})
		engine := scoring.New(tables, scoring.WithLogger(quietLogger()))

		Convey("Other genders and events score zero", func() {
			So(engine.Points("Men's 50 Freestyle (SCY)", 35, intp(10), nil), ShouldEqual, 0)
			So(engine.Points("Women's 50 Backstroke (SCY)", 35, intp(10), nil), ShouldEqual, 0)
		})
	})
}

func TestEngine_AgeFallback(t *testing.T) {
	Convey("Given tables for ages 6, 10 and the open group", t, func() {
		curve := func(age int, pts float64) scoring.Entry {
			return scoring.Entry{
				Age: age, Gender: scoring.Men, Event: "Push-Ups",
				Points: []scoring.Point{{Value: 10, Points: pts}, {Value: 20, Points: pts + 100}},
			}
		}
		tables := mustTables(t, curve(6, 100), curve(10, 500), curve(scoring.OpenAge, 900))
		engine := scoring.New(tables, scoring.WithLogger(quietLogger()))
		key := "Men's Push-Ups"

		Convey("An exact age uses its own table", func() {
			So(engine.Points(key, 10, intp(10), nil), ShouldEqual, 500)
		})

		Convey("An age below the youngest table uses the youngest table", func() {
			So(engine.Points(key, 10, intp(3), nil), ShouldEqual, 100)
		})

		Convey("Adults use the open table", func() {
			So(engine.Points(key, 10, intp(35), nil), ShouldEqual, 900)
		})

		Convey("An age with no table above the youngest falls back to the open table", func() {
			So(engine.Points(key, 10, intp(12), nil), ShouldEqual, 900)
		})

		Convey("A missing age uses the event's max age", func() {
			So(engine.Points(key, 10, nil, intp(10)), ShouldEqual, 500)
		})

		Convey("Age zero is treated as missing", func() {
			So(engine.Points(key, 10, intp(0), intp(10)), ShouldEqual, 500)
			So(engine.Points(key, 10, intp(0), nil), ShouldEqual, 900)
		})
	})
}

func TestScoringAge(t *testing.T) {
	tests := []struct {
		name   string
		age    *int
		maxAge *int
		want   int
	}{
		{name: "child", age: intp(9), want: 9},
		{name: "age 1", age: intp(1), want: 1},
		{name: "age 3 stays in the child range", age: intp(3), want: 3},
		{name: "age 14", age: intp(14), want: 14},
		{name: "age 15", age: intp(15), want: scoring.OpenAge},
		{name: "age wins over max age", age: intp(8), maxAge: intp(10), want: 8},
		{name: "missing age uses max age", maxAge: intp(10), want: 10},
		{name: "open event max age", maxAge: intp(99), want: scoring.OpenAge},
		{name: "zero age uses max age", age: intp(0), maxAge: intp(12), want: 12},
		{name: "negative age without max age", age: intp(-2), want: scoring.OpenAge},
		{name: "nothing known", want: scoring.OpenAge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoring.ScoringAge(tt.age, tt.maxAge); got != tt.want {
				t.Errorf("ScoringAge() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	tables := mustTables(t, scoring.Entry{
		Age: 10, Gender: scoring.Women, Event: "50 Freestyle (SCY)",
		Points: []scoring.Point{{Value: 41.23, Points: 1000}, {Value: 43.56, Points: 950}},
	})
	engine := scoring.New(tables, scoring.WithLogger(quietLogger()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := engine.Points("Women's 50 Freestyle (SCY)", 40, intp(10), nil); got != 1000 {
					t.Errorf("Points() = %v, want 1000", got)
					return
				}
				engine.Points("Women's 100 Freestyle (SCY)", 80, intp(10), nil)
			}
		}()
	}
	wg.Wait()
}
