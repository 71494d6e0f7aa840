// Package harness runs conformance scenarios against the reduction engine.
//
// A scenario is a YAML file listing term inputs with their budgets and the
// results they must reduce to. Every scenario runs against a fresh engine
// (debug mode on, so the store is validated after every reduction) and a
// fresh in-memory run journal. Steps share the engine, which makes the
// pending protocol observable: a step that stops early leaves its partial
// result in the store and a later step on the same input resumes from it.
//
// Each step produces one TraceEvent. The trace can be compared against a
// golden file with RunWithGolden:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/resume.yaml")
//	if err != nil {
//		t.Fatal(err)
//	}
//	if err := harness.RunWithGolden(t, scenario); err != nil {
//		t.Fatal(err)
//	}
//
// Golden files live in testdata/golden and are regenerated with
//
//	go test ./internal/harness -update
package harness
