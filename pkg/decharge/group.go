package decharge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// groupNamespace seeds the name-based group IDs.
var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ChrisMcGann/decharger/groups"))

// evenLadderRatio is the share of multi-member groups with only even charges
// above which the charge range is probably off by a factor of two.
const evenLadderRatio = 0.95

// group walks the components of the selected edges in ascending feature
// order and turns each into a charge group or a singleton.
func (d *Decharger) group(g *graph.Graph, features []core.Feature) ([]ChargeGroup, []Singleton, []Diagnostic) {
	var groups []ChargeGroup
	var singletons []Singleton
	var diags []Diagnostic

	def, hasDefault := d.ex.Catalog().Default()
	evenOnly := 0

	for _, comp := range g.Components(graph.IsSelected) {
		if len(comp) == 1 {
			singletons = append(singletons, d.singleton(features[comp[0]], def, hasDefault))
			continue
		}

		grp, worst := buildGroup(g, features, comp)
		if worst > d.params.AgreementTolerance {
			grp.Confidence = ConfidenceLow
			ids := featureIDs(features, comp)
			d.logger.Warn("group members disagree on neutral mass",
				"group", grp.ID, "neutral_mass", grp.NeutralMass, "deviation", worst, "features", ids)
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Code:       CodeMassDisagreement,
				Message:    fmt.Sprintf("neutral masses deviate by up to %.5f from %.5f", worst, grp.NeutralMass),
				FeatureIDs: ids,
			})
		}

		if allEven(grp.Charges) {
			evenOnly++
		}
		groups = append(groups, grp)
	}

	if len(groups) > 0 && float64(evenOnly) >= evenLadderRatio*float64(len(groups)) {
		d.logger.Warn("almost all groups only have even charges; the charge range may be too wide",
			"even_groups", evenOnly, "groups", len(groups))
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeEvenLadders,
			Message:  fmt.Sprintf("%d of %d groups only contain even charges", evenOnly, len(groups)),
		})
	}

	groupsEmitted.Add(float64(len(groups)))
	singletonsEmitted.Add(float64(len(singletons)))
	return groups, singletons, diags
}

// buildGroup assembles the members of a component and returns the group
// with the largest member deviation from its neutral mass. The group mass
// is taken from the member with the lowest charge magnitude.
func buildGroup(g *graph.Graph, features []core.Feature, comp []int) (ChargeGroup, float64) {
	members := make([]Member, len(comp))
	ref := 0
	for k, v := range comp {
		e := firstSelected(g, v)
		q := e.ChargeOf(v)
		members[k] = Member{
			FeatureID:   features[v].ID,
			Charge:      q,
			Composition: e.CompositionOf(v),
			NeutralMass: core.NeutralMass(features[v].MZ, q, e.AdductMassOf(v)),
		}
		if abs(q) < abs(members[ref].Charge) {
			ref = k
		}
	}

	grp := ChargeGroup{
		ID:          groupID(members),
		NeutralMass: members[ref].NeutralMass,
		Members:     members,
		Confidence:  ConfidenceHigh,
	}

	worst := 0.0
	seen := make(map[int]bool)
	for _, m := range members {
		worst = math.Max(worst, math.Abs(m.NeutralMass-grp.NeutralMass))
		if !seen[m.Charge] {
			seen[m.Charge] = true
			grp.Charges = append(grp.Charges, m.Charge)
		}
	}
	sort.Ints(grp.Charges)

	return grp, worst
}

// firstSelected returns the lowest-index selected edge touching v. All
// selected edges of a feature agree on its assignment.
func firstSelected(g *graph.Graph, v int) *graph.Edge {
	for _, idx := range g.Adj[v] {
		if g.Edges[idx].Selected {
			return &g.Edges[idx]
		}
	}
	return nil
}

func (d *Decharger) singleton(f core.Feature, def catalog.Entry, hasDefault bool) Singleton {
	q := abs(f.Charge)
	if d.params.NegativeMode {
		q = -q
	}
	s := Singleton{FeatureID: f.ID, Charge: q}
	if q != 0 && hasDefault {
		s.NeutralMass = core.NeutralMass(f.MZ, q, float64(abs(q))*def.Mass)
	}
	return s
}

// groupID is a UUIDv5 over the sorted member feature ids.
func groupID(members []Member) string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.FeatureID
	}
	sort.Strings(ids)
	return uuid.NewSHA1(groupNamespace, []byte(strings.Join(ids, "\x00"))).String()
}

func allEven(charges []int) bool {
	for _, q := range charges {
		if q%2 != 0 {
			return false
		}
	}
	return len(charges) > 0
}
