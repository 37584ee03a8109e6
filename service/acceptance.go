package service

import (
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("List problems", func(a *biff.A) {
		resp := apiRequest("GET", "/problems").Do()
		Save(resp, "List problems", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		names := []interface{}{}
		for _, p := range resp.BodyJson().([]interface{}) {
			names = append(names, p.(JSON)["name"])
		}
		biff.AssertEqual(names, []interface{}{"coloring", "graph"})
	})

	a.Alternative("List explorations, empty", func(a *biff.A) {
		resp := apiRequest("GET", "/explorations").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), []JSON{})
	})

	a.Alternative("Create exploration", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyJson(JSON{
				"problem": "coloring",
				"parameters": JSON{
					"size":   4,
					"colors": 2,
				},
				"strategy": "dfs",
				"seed":     1,
				"wait":     true,
			}).Do()
		Save(resp, "Create exploration", `
			Launch an exploration over a problem of the catalog. With `+"`wait`"+`
			the response is sent once the exploration is done.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		body := resp.BodyJsonMap()
		id := body["id"].(string)
		biff.AssertNotEqual(id, "")
		biff.AssertEqual(body["problem"], "coloring")
		biff.AssertEqual(body["strategy"], "dfs")
		biff.AssertEqual(body["status"], "success")
		biff.AssertEqual(body["solutions"], float64(1))

		a.Alternative("Retrieve exploration", func(a *biff.A) {
			resp := apiRequest("GET", "/explorations/"+id).Do()
			Save(resp, "Retrieve exploration", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJsonMap()
			biff.AssertEqual(body["id"], id)
			biff.AssertEqual(body["status"], "success")
			statistics := body["statistics"].(JSON)
			biff.AssertEqual(statistics["solutions"], float64(1))
			biff.AssertEqual(statistics["max_depth_reached"], float64(4))
		})

		a.Alternative("List explorations", func(a *biff.A) {
			resp := apiRequest("GET", "/explorations").Do()
			Save(resp, "List explorations", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			list := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(list), 1)
			biff.AssertEqual(list[0].(JSON)["id"], id)
		})

		a.Alternative("Solutions", func(a *biff.A) {
			resp := apiRequest("GET", "/explorations/"+id+"/solutions").Do()
			Save(resp, "Solutions", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			solutions := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(solutions), 1)

			solution := solutions[0].(JSON)
			biff.AssertEqual(solution["depth"], float64(4))
			biff.AssertEqual(solution["satisfied"], true)
			biff.AssertEqualJson(solution["objectives"], JSON{"uncolored": 0})
			biff.AssertEqual(len(solution["trajectory"].([]interface{})), 5)
		})

		a.Alternative("Graph", func(a *biff.A) {
			resp := apiRequest("GET", "/explorations/"+id+"/graph").Do()
			Save(resp, "Graph", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			graph := resp.BodyJsonMap()
			states := graph["states"].([]interface{})
			biff.AssertTrue(len(states) >= 5)
			biff.AssertTrue(strings.HasSuffix(states[0].(JSON)["label"].(string), "depth=0"))

			solutions := 0
			for _, state := range states {
				if state.(JSON)["solution"] == true {
					solutions++
				}
			}
			biff.AssertEqual(solutions, 1)
			biff.AssertTrue(len(graph["transitions"].([]interface{})) >= 4)
		})

		a.Alternative("Stop finished exploration", func(a *biff.A) {
			resp := apiRequest("POST", "/explorations/"+id+":stop").Do()
			Save(resp, "Stop exploration", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJsonMap()["status"], "success")
		})
	})

	a.Alternative("Create exploration, best first", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyJson(JSON{
				"problem":                 "graph",
				"strategy":                "bestfirst",
				"exploration_probability": 0.1,
				"wait":                    true,
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		body := resp.BodyJsonMap()
		biff.AssertEqual(body["strategy"], "bestfirst")
		biff.AssertEqual(body["status"], "success")
	})

	a.Alternative("Create exploration, unknown problem", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyJson(JSON{
				"problem": "sudoku",
			}).Do()
		Save(resp, "Create exploration - unknown problem", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Create exploration, unknown strategy", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyJson(JSON{
				"problem":  "graph",
				"strategy": "annealing",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Create exploration, invalid solution filter", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyJson(JSON{
				"problem": "graph",
				"solution_filter": JSON{
					"depth": JSON{"$around": 3},
				},
			}).Do()
		Save(resp, "Create exploration - invalid solution filter", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)

		list := apiRequest("GET", "/explorations").Do()
		biff.AssertEqualJson(list.BodyJson(), []JSON{})
	})

	a.Alternative("Create exploration, malformed body", func(a *biff.A) {
		resp := apiRequest("POST", "/explorations").
			WithBodyString(`{"problem": }`).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Retrieve exploration, not found", func(a *biff.A) {
		resp := apiRequest("GET", "/explorations/invented").Do()
		Save(resp, "Retrieve exploration - not found", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
