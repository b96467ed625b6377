// Package master builds the restricted master problem of a node: route
// columns over customer, charger, fleet, branching and cut rows.
package master

import (
	"context"
	"fmt"
	"math"
	"strings"

	"evrptw_bpc/src/model"
	"evrptw_bpc/src/oracle"
	"evrptw_bpc/src/pricing"

	"github.com/pkg/errors"
)

var ErrDuplicateCut = errors.New("master: cut already present")

const eps = 1e-6

type vehicleRow struct {
	row     int
	bound   int
	atLeast bool
}

type chargingRow struct {
	row    int
	branch pricing.ChargingBranch
	bound  int
}

type cutRow struct {
	row int
	cut *model.SubsetRow
}

type Master struct {
	inst           *model.Instance
	oracle         oracle.Oracle
	artificialCost int

	problem *oracle.Problem
	columns []*model.Route
	keys    map[string]int

	customerRows []int
	chargerRows  []int
	capacityRow  int
	vehicleRows  []vehicleRow
	chargingRows []chargingRow
	cutRows      []cutRow
}

// Solution is the outcome of a master solve with the duals already split
// the way pricing consumes them.
type Solution struct {
	Objective float64
	Values    []float64
	Duals     pricing.Duals
	// CutDuals holds the dual of every cut row, in the order of Cuts.
	CutDuals []float64
	Raw      []float64
}

// New creates a master holding the artificial column alone.
func New(inst *model.Instance, o oracle.Oracle, artificialCost int) *Master {
	m := &Master{
		inst:           inst,
		oracle:         o,
		artificialCost: artificialCost,
		problem:        new(oracle.Problem),
		keys:           make(map[string]int),
	}
	for c := 1; c <= inst.NumCustomers; c++ {
		m.customerRows = append(m.customerRows, m.problem.AddRow(fmt.Sprintf("customer_%d", c), oracle.Equal, 1))
	}
	for t := 1; t <= inst.LastChargingPeriod; t++ {
		m.chargerRows = append(m.chargerRows, m.problem.AddRow(fmt.Sprintf("charger_%d", t), oracle.LessEqual, float64(inst.Chargers)))
	}
	m.capacityRow = m.problem.AddRow("fleet", oracle.GreaterEqual, float64(inst.MinVehicles()))
	m.AddColumn(model.NewArtificialRoute(inst, artificialCost))
	return m
}

func (m *Master) entries(r *model.Route) []oracle.Entry {
	var es []oracle.Entry
	add := func(row int, v float64) {
		if v != 0 {
			es = append(es, oracle.Entry{Row: row, Value: v})
		}
	}
	for c := 1; c <= m.inst.NumCustomers; c++ {
		add(m.customerRows[c-1], float64(r.Visits[c]))
	}
	for _, vr := range m.vehicleRows {
		add(vr.row, m.vehicleCoefficient(r, vr))
	}
	for _, cr := range m.chargingRows {
		add(cr.row, m.chargingCoefficient(r, cr))
	}
	for _, cr := range m.cutRows {
		add(cr.row, m.cutCoefficient(r, cr))
	}
	if r.Artificial {
		add(m.capacityRow, float64(m.inst.MinVehicles()))
		return es
	}
	for t := r.InitialChargingTime; t <= r.ChargingEnd(); t++ {
		if t >= 1 && t <= len(m.chargerRows) {
			add(m.chargerRows[t-1], 1)
		}
	}
	add(m.capacityRow, 1)
	return es
}

func (m *Master) vehicleCoefficient(r *model.Route, vr vehicleRow) float64 {
	if r.Artificial {
		if vr.atLeast {
			return float64(vr.bound)
		}
		return 0
	}
	return 1
}

func (m *Master) chargingCoefficient(r *model.Route, cr chargingRow) float64 {
	if r.Artificial {
		if cr.branch.AtLeast {
			return float64(cr.bound)
		}
		return 0
	}
	t := r.ChargingEnd()
	if cr.branch.Start {
		t = r.InitialChargingTime
	}
	if t == cr.branch.Timestep {
		return 1
	}
	return 0
}

func (m *Master) cutCoefficient(r *model.Route, cr cutRow) float64 {
	if r.Artificial {
		return 0
	}
	return float64(cr.cut.Coefficient(r))
}

// AddColumn adds the route unless an identical column is already present.
func (m *Master) AddColumn(r *model.Route) bool {
	if _, ok := m.keys[r.Key()]; ok {
		return false
	}
	m.keys[r.Key()] = len(m.columns)
	m.columns = append(m.columns, r)
	m.problem.AddColumn(float64(r.Cost), m.entries(r))
	return true
}

func (m *Master) AddColumns(routes []*model.Route) int {
	added := 0
	for _, r := range routes {
		if m.AddColumn(r) {
			added++
		}
	}
	return added
}

func (m *Master) Columns() []*model.Route {
	return m.columns
}

func (m *Master) NumRows() int {
	return m.problem.NumRows()
}

// AddCut adds a subset-row row for the triplet.
func (m *Master) AddCut(c *model.SubsetRow) error {
	for _, cr := range m.cutRows {
		if cr.cut.Key() == c.Key() {
			return errors.Wrapf(ErrDuplicateCut, "%v", c.Triplet)
		}
	}
	cr := cutRow{cut: c}
	cr.row = m.problem.AddRow(fmt.Sprintf("src_%d_%d_%d", c.Triplet[0], c.Triplet[1], c.Triplet[2]), oracle.LessEqual, 1)
	for j, r := range m.columns {
		if v := m.cutCoefficient(r, cr); v != 0 {
			m.problem.SetCoefficient(cr.row, j, v)
		}
	}
	m.cutRows = append(m.cutRows, cr)
	return nil
}

func (m *Master) Cuts() []*model.SubsetRow {
	cuts := make([]*model.SubsetRow, len(m.cutRows))
	for i, cr := range m.cutRows {
		cuts[i] = cr.cut
	}
	return cuts
}

// AddVehicleBranch bounds the number of routes from above, or from below
// when atLeast is set.
func (m *Master) AddVehicleBranch(bound int, atLeast bool) {
	vr := vehicleRow{bound: bound, atLeast: atLeast}
	sense, name := oracle.LessEqual, "vehicles_le"
	if atLeast {
		sense, name = oracle.GreaterEqual, "vehicles_ge"
	}
	vr.row = m.problem.AddRow(name, sense, float64(bound))
	for j, r := range m.columns {
		if v := m.vehicleCoefficient(r, vr); v != 0 {
			m.problem.SetCoefficient(vr.row, j, v)
		}
	}
	m.vehicleRows = append(m.vehicleRows, vr)
}

// AddChargingBranch bounds the number of charging windows starting (or
// ending) at the branch timestep.
func (m *Master) AddChargingBranch(branch pricing.ChargingBranch, bound int) {
	cr := chargingRow{branch: branch, bound: bound}
	sense := oracle.LessEqual
	if branch.AtLeast {
		sense = oracle.GreaterEqual
	}
	side := "end"
	if branch.Start {
		side = "start"
	}
	cr.row = m.problem.AddRow(fmt.Sprintf("charging_%s_%d", side, branch.Timestep), sense, float64(bound))
	for j, r := range m.columns {
		if v := m.chargingCoefficient(r, cr); v != 0 {
			m.problem.SetCoefficient(cr.row, j, v)
		}
	}
	m.chargingRows = append(m.chargingRows, cr)
}

// MaxVehicles is the largest fleet the node allows.
func (m *Master) MaxVehicles() int {
	k := m.inst.NumCustomers
	for _, vr := range m.vehicleRows {
		if !vr.atLeast {
			k = min(k, vr.bound)
		}
	}
	return k
}

// Solve solves the linear relaxation and stores the route values.
func (m *Master) Solve(ctx context.Context) (*Solution, error) {
	res, err := m.oracle.SolveLP(ctx, m.problem)
	if err != nil {
		return nil, errors.Wrap(err, "solving master relaxation")
	}
	m.setValues(res.Primal)
	return m.solution(res), nil
}

// SolveInteger solves the master over binary columns. Duals are not
// available on the returned solution.
func (m *Master) SolveInteger(ctx context.Context) (*Solution, error) {
	res, err := m.oracle.SolveMIP(ctx, m.problem)
	if err != nil && (res == nil || res.Primal == nil) {
		return nil, errors.Wrap(err, "solving integer master")
	}
	m.setValues(res.Primal)
	return &Solution{Objective: res.Objective, Values: res.Primal}, err
}

func (m *Master) setValues(primal []float64) {
	for j, r := range m.columns {
		r.Value = 0
		if j < len(primal) {
			r.Value = primal[j]
		}
	}
}

func (m *Master) solution(res *oracle.Result) *Solution {
	y := res.Duals
	sol := &Solution{
		Objective: res.Objective,
		Values:    res.Primal,
		Raw:       y,
		Duals: pricing.Duals{
			Customers: make([]float64, len(m.customerRows)),
			Chargers:  make([]float64, len(m.chargerRows)),
		},
	}
	for i, row := range m.customerRows {
		sol.Duals.Customers[i] = y[row]
	}
	for i, row := range m.chargerRows {
		sol.Duals.Chargers[i] = y[row]
	}
	sol.Duals.Constant = y[m.capacityRow]
	for _, vr := range m.vehicleRows {
		sol.Duals.Constant += y[vr.row]
	}
	for _, cr := range m.chargingRows {
		sol.Duals.ChargingBranches = append(sol.Duals.ChargingBranches, y[cr.row])
	}
	for _, cr := range m.cutRows {
		sol.CutDuals = append(sol.CutDuals, y[cr.row])
	}
	return sol
}

// PricingInput hands the duals of sol to pricing. Cuts whose dual is not
// negative cannot change any reduced cost and are left out.
func (m *Master) PricingInput(sol *Solution) *pricing.Input {
	in := &pricing.Input{Duals: sol.Duals}
	in.Duals.Cuts = nil
	for i, cr := range m.cutRows {
		if sol.CutDuals[i] < -eps {
			in.Cuts = append(in.Cuts, cr.cut)
			in.Duals.Cuts = append(in.Duals.Cuts, sol.CutDuals[i])
		}
	}
	for _, cr := range m.chargingRows {
		in.ChargingBranches = append(in.ChargingBranches, cr.branch)
	}
	return in
}

// ReducedCost prices a column against the raw duals of sol.
func (m *Master) ReducedCost(r *model.Route, sol *Solution) float64 {
	rc := float64(r.Cost)
	for _, e := range m.entries(r) {
		rc -= e.Value * sol.Raw[e.Row]
	}
	return rc
}

// ArtificialInUse reports whether the artificial column carries value.
func (m *Master) ArtificialInUse() bool {
	for _, r := range m.columns {
		if r.Artificial && r.Value > eps {
			return true
		}
	}
	return false
}

// Integral reports whether every column value is within tol of an integer.
func (m *Master) Integral(tol float64) bool {
	for _, r := range m.columns {
		if math.Abs(r.Value-math.Round(r.Value)) > tol {
			return false
		}
	}
	return true
}

func (m *Master) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Master: %d rows, %d columns, %d cuts\n", m.problem.NumRows(), len(m.columns), len(m.cutRows))
	for _, r := range m.columns {
		if r.Value > eps {
			fmt.Fprintf(s, "  %v\n", r)
		}
	}
	return s.String()
}
