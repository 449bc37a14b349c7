package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/verdict/internal/adapters/http/api"
	"github.com/okian/verdict/internal/adapters/live"
	"github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type harness struct {
	svc     *app.Service
	mux     *http.ServeMux
	eventID string
	teamIDs map[string]string // name -> id
}

func newHarness() *harness {
	ctx := context.Background()
	svc := app.New(app.WithHub(live.NewHub()))
	server := api.NewServer(svc, svc)
	mux := http.NewServeMux()
	server.Register(ctx, mux)

	ev, err := svc.CreateEvent(ctx, app.CreateEventParams{
		Name:   "Demo Day",
		Teams:  []app.TeamSeed{{Name: "Alpha"}, {Name: "Bravo"}},
		Judges: []model.Judge{{ID: "j1", Name: "Ada"}, {ID: "j2", Name: "Grace"}},
	})
	if err != nil {
		panic(err)
	}
	h := &harness{svc: svc, mux: mux, eventID: ev.ID, teamIDs: make(map[string]string)}
	teams, err := svc.Teams(ctx, ev.ID)
	if err != nil {
		panic(err)
	}
	for _, t := range teams {
		h.teamIDs[t.Name] = t.ID
	}
	return h
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func (h *harness) startJudging() {
	if w := h.do("POST", "/events/"+h.eventID+"/phase", `{"action":"start"}`); w.Code != http.StatusOK {
		panic(w.Body.String())
	}
}

func (h *harness) submit(judgeID, teamName string, scores [4]int) *httptest.ResponseRecorder {
	body, err := json.Marshal(map[string]any{
		"team_id":  h.teamIDs[teamName],
		"judge_id": judgeID,
		"criteria_scores": []map[string]any{
			{"criteria_id": "problem", "score": scores[0]},
			{"criteria_id": "solution", "score": scores[1]},
			{"criteria_id": "execution", "score": scores[2]},
			{"criteria_id": "communication", "score": scores[3]},
		},
		"time_spent_seconds": 120,
	})
	if err != nil {
		panic(err)
	}
	return h.do("POST", "/events/"+h.eventID+"/scores", string(body))
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		panic(err)
	}
	return v
}

func TestServer_Health(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()

		Convey("When hitting the health endpoint", func() {
			w := h.do("GET", "/healthz", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("When hitting the metrics endpoint", func() {
			w := h.do("GET", "/metrics", "")

			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When hitting the stats endpoint", func() {
			w := h.do("GET", "/stats", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](w)
			So(stats, ShouldContainKey, "submissions_accepted")
		})
	})
}

func TestServer_Events(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()

		Convey("When creating an event", func() {
			w := h.do("POST", "/events", `{
				"name": "Spring Hack",
				"teams": [{"name": "Gamma"}],
				"judges": [{"id": "jx", "name": "Alan"}]
			}`)

			So(w.Code, ShouldEqual, http.StatusCreated)
			ev := decode[model.Event](w)
			So(ev.ID, ShouldNotBeEmpty)
			So(ev.Phase, ShouldEqual, model.PhaseNotStarted)

			Convey("Then the event is readable", func() {
				got := h.do("GET", "/events/"+ev.ID, "")
				So(got.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When creating an event without a name", func() {
			w := h.do("POST", "/events", `{"teams": []}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When creating an event with malformed JSON", func() {
			w := h.do("POST", "/events", `{"name": `)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When reading an unknown event", func() {
			w := h.do("GET", "/events/missing", "")

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing the event's criteria", func() {
			w := h.do("GET", "/events/"+h.eventID+"/criteria", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			criteria := decode[[]model.Criterion](w)
			So(criteria, ShouldHaveLength, 4)
			So(criteria[0].ID, ShouldEqual, "problem")
		})
	})
}

func TestServer_Phase(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()

		Convey("When starting judging", func() {
			w := h.do("POST", "/events/"+h.eventID+"/phase", `{"action":"start"}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			ev := decode[model.Event](w)
			So(ev.Phase, ShouldEqual, model.PhaseInProgress)

			Convey("Then starting twice conflicts", func() {
				again := h.do("POST", "/events/"+h.eventID+"/phase", `{"action":"start"}`)
				So(again.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When ending before all teams completed", func() {
			h.startJudging()
			w := h.do("POST", "/events/"+h.eventID+"/phase", `{"action":"end"}`)

			So(w.Code, ShouldEqual, http.StatusConflict)
			resp := decode[map[string]string](w)
			So(resp["code"], ShouldEqual, "precondition_failed")
		})

		Convey("When the action is unknown", func() {
			w := h.do("POST", "/events/"+h.eventID+"/phase", `{"action":"pause"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Teams(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness()
		h.startJudging()

		Convey("When listing teams", func() {
			w := h.do("GET", "/events/"+h.eventID+"/teams", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			teams := decode[[]model.Team](w)
			So(teams, ShouldHaveLength, 2)
		})

		Convey("When setting a team status", func() {
			w := h.do("PATCH", "/events/"+h.eventID+"/teams/"+h.teamIDs["Alpha"]+"/status", `{"status":"active"}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			team := decode[model.Team](w)
			So(team.Status, ShouldEqual, model.TeamActive)
		})

		Convey("When the status value is unknown", func() {
			w := h.do("PATCH", "/events/"+h.eventID+"/teams/"+h.teamIDs["Alpha"]+"/status", `{"status":"done"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the team does not exist", func() {
			w := h.do("PATCH", "/events/"+h.eventID+"/teams/ghost/status", `{"status":"active"}`)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Scores(t *testing.T) {
	Convey("Given an event with judging in progress", t, func() {
		h := newHarness()
		h.startJudging()

		Convey("When a judge submits a complete evaluation", func() {
			w := h.submit("j1", "Alpha", [4]int{20, 18, 22, 25})

			So(w.Code, ShouldEqual, http.StatusCreated)
			receipt := decode[map[string]any](w)
			So(receipt["total_score"], ShouldEqual, 85)

			Convey("Then submitting again for the same team conflicts", func() {
				dup := h.submit("j1", "Alpha", [4]int{10, 10, 10, 10})
				So(dup.Code, ShouldEqual, http.StatusConflict)
				resp := decode[map[string]string](dup)
				So(resp["code"], ShouldEqual, "duplicate_submission")
			})

			Convey("Then the team scores endpoint shows the breakdown", func() {
				scores := h.do("GET", "/events/"+h.eventID+"/teams/"+h.teamIDs["Alpha"]+"/scores", "")
				So(scores.Code, ShouldEqual, http.StatusOK)
				So(scores.Body.String(), ShouldContainSubstring, `"judges_scored":1`)
			})
		})

		Convey("When a score is out of range", func() {
			w := h.submit("j1", "Alpha", [4]int{30, 0, 0, 0})

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			resp := decode[map[string]string](w)
			So(resp["code"], ShouldEqual, "validation_error")
		})

		Convey("When the body is not JSON", func() {
			w := h.do("POST", "/events/"+h.eventID+"/scores", `not json`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When judging has not started", func() {
			fresh := newHarness()
			w := fresh.submit("j1", "Alpha", [4]int{20, 18, 22, 25})

			So(w.Code, ShouldEqual, http.StatusConflict)
			resp := decode[map[string]string](w)
			So(resp["code"], ShouldEqual, "precondition_failed")
		})
	})
}

func TestServer_Leaderboard(t *testing.T) {
	Convey("Given an event with submitted scores", t, func() {
		h := newHarness()
		h.startJudging()
		So(h.submit("j1", "Alpha", [4]int{25, 20, 20, 20}).Code, ShouldEqual, http.StatusCreated)
		So(h.submit("j2", "Alpha", [4]int{25, 25, 20, 20}).Code, ShouldEqual, http.StatusCreated)
		So(h.submit("j1", "Bravo", [4]int{20, 20, 15, 15}).Code, ShouldEqual, http.StatusCreated)

		Convey("When reading the leaderboard", func() {
			w := h.do("GET", "/events/"+h.eventID+"/leaderboard", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			view := decode[app.LeaderboardView](w)
			So(view.Final, ShouldBeFalse)
			So(view.Entries, ShouldHaveLength, 2)
			So(view.Entries[0].TeamID, ShouldEqual, h.teamIDs["Alpha"])
			So(view.Entries[0].Rank, ShouldEqual, 1)
			So(view.TotalScoreCaveat, ShouldNotBeEmpty)
		})

		Convey("When reading a judge's progress", func() {
			w := h.do("GET", "/events/"+h.eventID+"/judges/j1/progress", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			report := decode[app.ProgressReport](w)
			So(report.TeamsScored, ShouldEqual, 2)
			So(report.TeamsTotal, ShouldEqual, 2)
		})

		Convey("When reading progress for an unknown judge", func() {
			w := h.do("GET", "/events/"+h.eventID+"/judges/ghost/progress", "")

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Compare(t *testing.T) {
	Convey("Given an event with submitted scores", t, func() {
		h := newHarness()
		h.startJudging()
		So(h.submit("j1", "Alpha", [4]int{25, 20, 20, 20}).Code, ShouldEqual, http.StatusCreated)
		So(h.submit("j1", "Bravo", [4]int{20, 20, 15, 15}).Code, ShouldEqual, http.StatusCreated)

		base := "/events/" + h.eventID + "/compare"
		pair := fmt.Sprintf("team1=%s&team2=%s", h.teamIDs["Alpha"], h.teamIDs["Bravo"])

		Convey("When comparing two teams", func() {
			w := h.do("GET", base+"?"+pair, "")

			So(w.Code, ShouldEqual, http.StatusOK)
			report := decode[app.CompareReport](w)
			So(report.Comparison.SharedJudges, ShouldEqual, 1)
			So(report.Comparison.Team1Preferred, ShouldEqual, 1)
			So(report.Criterion, ShouldBeNil)
		})

		Convey("When asking for a criterion breakdown", func() {
			w := h.do("GET", base+"?"+pair+"&criterion=problem", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			report := decode[app.CompareReport](w)
			So(report.Criterion, ShouldNotBeNil)
			So(report.Criterion.Team1Total, ShouldEqual, 25)
			So(report.Criterion.Team2Total, ShouldEqual, 20)
		})

		Convey("When a team parameter is missing", func() {
			w := h.do("GET", base+"?team1="+h.teamIDs["Alpha"], "")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When both parameters name the same team", func() {
			w := h.do("GET", base+"?team1="+h.teamIDs["Alpha"]+"&team2="+h.teamIDs["Alpha"], "")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a team does not exist", func() {
			w := h.do("GET", base+"?team1="+h.teamIDs["Alpha"]+"&team2=ghost", "")

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
