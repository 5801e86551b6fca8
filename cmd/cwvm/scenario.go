package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/host"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session against a fresh chain.
type Scenario struct {
	// Accounts are funded before the first step. Names become addresses
	// usable wherever a step takes a sender, admin or contract.
	Accounts map[string]entities.Coins `yaml:"accounts"`
	// Codes maps names to wasm files, relative to the scenario file.
	Codes map[string]string `yaml:"codes"`
	Steps []Step            `yaml:"steps"`
}

// Step actions.
const (
	ActionInstantiate = "instantiate"
	ActionExecute     = "execute"
	ActionMigrate     = "migrate"
	ActionQuery       = "query"
	ActionSudo        = "sudo"
	ActionUpdateAdmin = "update_admin"
	ActionNextBlock   = "next_block"
)

// Step is one top-level call.
type Step struct {
	Action   string         `yaml:"action"`
	Sender   string         `yaml:"sender"`
	Contract string         `yaml:"contract"`
	Code     string         `yaml:"code"`
	Label    string         `yaml:"label"`
	Admin    string         `yaml:"admin"`
	Salt     string         `yaml:"salt"`
	As       string         `yaml:"as"`
	Msg      yaml.Node      `yaml:"msg"`
	Funds    entities.Coins `yaml:"funds"`
	Elapsed  time.Duration  `yaml:"elapsed"`
	// ExpectError makes a failing call pass and a succeeding one fail.
	ExpectError bool `yaml:"expect_error"`
}

// StepReport is the printed outcome of a step.
type StepReport struct {
	Action   string                `json:"action"`
	Contract entities.Addr         `json:"contract,omitempty"`
	Data     any                   `json:"data,omitempty"`
	Events   []entities.Event      `json:"events,omitempty"`
	Error    *entities.ErrorDetail `json:"error,omitempty"`
	Height   uint64                `json:"height,omitempty"`
	Step     int                   `json:"step"`
	GasUsed  uint64                `json:"gas_used,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, "", fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &sc, filepath.Dir(path), nil
}

// runner plays a scenario against an engine.
type runner struct {
	eng   *engine
	dir   string
	names map[string]entities.Addr
	codes map[string]uint64
}

func newRunner(eng *engine, dir string) *runner {
	return &runner{
		eng:   eng,
		dir:   dir,
		names: make(map[string]entities.Addr),
		codes: make(map[string]uint64),
	}
}

func (r *runner) setup(ctx context.Context, sc *Scenario) error {
	for _, name := range sortedKeys(sc.Accounts) {
		addr, err := accountAddress(r.eng.chain.Addresses, name)
		if err != nil {
			return err
		}
		r.names[name] = addr
		if len(sc.Accounts[name]) > 0 {
			if err := r.eng.chain.Bank.Mint(addr, sc.Accounts[name]); err != nil {
				return fmt.Errorf("fund %s: %w", name, err)
			}
		}
	}

	creator, err := accountAddress(r.eng.chain.Addresses, "creator")
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(sc.Codes) {
		path := sc.Codes[name]
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.dir, path)
		}
		code, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("code %s: %w", name, err)
		}
		info, _, err := r.eng.StoreCode(ctx, creator, code)
		if err != nil {
			return fmt.Errorf("code %s: %w", name, err)
		}
		r.codes[name] = info.CodeID
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addr resolves an account or contract name. Unknown names are taken as
// literal addresses.
func (r *runner) addr(name string) entities.Addr {
	if a, ok := r.names[name]; ok {
		return a
	}
	return entities.Addr(name)
}

func (r *runner) codeID(name string) (uint64, error) {
	id, ok := r.codes[name]
	if !ok {
		return 0, fmt.Errorf("unknown code %q", name)
	}
	return id, nil
}

// msgJSON converts a yaml message to JSON. A missing message is {}.
func msgJSON(node yaml.Node) ([]byte, error) {
	if node.Kind == 0 {
		return []byte("{}"), nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("msg: %w", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msg: %w", err)
	}
	return b, nil
}

// reportData keeps JSON data readable and base64 encodes anything else.
func reportData(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	return data
}

func (r *runner) step(ctx context.Context, i int, st Step) (StepReport, error) {
	report := StepReport{Step: i, Action: st.Action}
	msg, err := msgJSON(st.Msg)
	if err != nil {
		return report, err
	}

	var res *host.Result
	switch st.Action {
	case ActionInstantiate:
		id, err := r.codeID(st.Code)
		if err != nil {
			return report, err
		}
		p := host.InstantiateParams{
			Sender: r.addr(st.Sender),
			CodeID: id,
			Label:  st.Label,
			Msg:    msg,
			Funds:  st.Funds,
			Salt:   []byte(st.Salt),
		}
		if st.Admin != "" {
			admin := r.addr(st.Admin)
			p.Admin = &admin
		}
		var contract entities.Addr
		contract, res, err = r.eng.Instantiate(ctx, p)
		if err == nil {
			report.Contract = contract
			if st.As != "" {
				r.names[st.As] = contract
			}
		}
		return r.finish(report, res, err)

	case ActionExecute:
		report.Contract = r.addr(st.Contract)
		res, err = r.eng.Execute(ctx, r.addr(st.Sender), report.Contract, msg, st.Funds)
		return r.finish(report, res, err)

	case ActionMigrate:
		id, err := r.codeID(st.Code)
		if err != nil {
			return report, err
		}
		report.Contract = r.addr(st.Contract)
		res, err = r.eng.Migrate(ctx, r.addr(st.Sender), report.Contract, id, msg)
		return r.finish(report, res, err)

	case ActionSudo:
		report.Contract = r.addr(st.Contract)
		res, err = r.eng.Sudo(ctx, report.Contract, msg)
		return r.finish(report, res, err)

	case ActionUpdateAdmin:
		report.Contract = r.addr(st.Contract)
		var admin *entities.Addr
		if st.Admin != "" {
			a := r.addr(st.Admin)
			admin = &a
		}
		res, err = r.eng.UpdateAdmin(ctx, r.addr(st.Sender), report.Contract, admin)
		return r.finish(report, res, err)

	case ActionQuery:
		report.Contract = r.addr(st.Contract)
		data, err := r.eng.Query(ctx, report.Contract, msg)
		if err != nil {
			report.Error = engerrors.ToErrorDetail(err)
			return report, err
		}
		report.Data = reportData(data)
		return report, nil

	case ActionNextBlock:
		report.Height = r.eng.NextBlock(st.Elapsed).Height
		return report, nil
	}
	return report, fmt.Errorf("unknown action %q", st.Action)
}

func (r *runner) finish(report StepReport, res *host.Result, err error) (StepReport, error) {
	if err != nil {
		report.Error = engerrors.ToErrorDetail(err)
		return report, err
	}
	report.Data = reportData(res.Data)
	report.Events = res.Events
	report.GasUsed = res.GasUsed
	return report, nil
}

// errUnexpectedSuccess marks a step that should have failed.
var errUnexpectedSuccess = errors.New("expected an error")

// Run plays every step in order and stops at the first unexpected outcome.
// The reports of the steps played are returned either way.
func (r *runner) Run(ctx context.Context, sc *Scenario) ([]StepReport, error) {
	if err := r.setup(ctx, sc); err != nil {
		return nil, err
	}
	reports := make([]StepReport, 0, len(sc.Steps))
	for i, st := range sc.Steps {
		report, err := r.step(ctx, i+1, st)
		reports = append(reports, report)
		switch {
		case err != nil && !st.ExpectError:
			return reports, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		case err == nil && st.ExpectError:
			return reports, fmt.Errorf("step %d (%s): %w", i+1, st.Action, errUnexpectedSuccess)
		}
	}
	return reports, nil
}

