package analyzer

import (
	"math"

	"github.com/connascence-tools/conscan/domain"
	"github.com/connascence-tools/conscan/internal/parser"
)

// Weights for combining the individual cohesion measures into one score.
// LCOM5 carries the most weight; data cohesion is reserved and stays zero,
// the gate thresholds downstream are calibrated with it at zero.
var cohesionWeights = struct {
	lcom5      float64
	iface      float64
	data       float64
	behavioral float64
	ratio      float64
}{0.3, 0.2, 0.2, 0.15, 0.15}

// ComputeCohesion measures how well a class's methods belong together. All
// component scores live in [0, 1] except LCOM5, which is normalized inside
// the overall combination.
func ComputeCohesion(class *parser.Node) domain.CohesionMetrics {
	m := domain.CohesionMetrics{
		LCOM5:                LCOM5(class),
		MethodAttributeRatio: MethodAttributeRatio(class),
		InterfaceCohesion:    InterfaceCohesion(class),
		BehavioralCohesion:   BehavioralCohesion(class),
	}

	invertedLCOM5 := math.Max(0, 1-m.LCOM5/5.0)
	m.OverallCohesion = cohesionWeights.lcom5*invertedLCOM5 +
		cohesionWeights.iface*m.InterfaceCohesion +
		cohesionWeights.data*m.DataCohesion +
		cohesionWeights.behavioral*m.BehavioralCohesion +
		cohesionWeights.ratio*math.Min(1.0, m.MethodAttributeRatio/3.0)
	return m
}

// LCOM5 computes the lack-of-cohesion metric: (M - sum(Au)/|A|) / (M - 1)
// where M is the method count and Au the number of methods touching each
// attribute. Zero means fully cohesive; values can exceed 1 when methods
// partition into disjoint attribute clusters. Returns 0 for classes with at
// most one method or no instance attributes.
func LCOM5(class *parser.Node) float64 {
	methods := MethodsOf(class)
	if len(methods) <= 1 {
		return 0
	}

	usage := map[string]int{}
	for _, method := range methods {
		for attr := range methodSelfAttributes(method) {
			usage[attr]++
		}
	}
	if len(usage) == 0 {
		return 0
	}

	total := 0
	for _, n := range usage {
		total += n
	}
	m := float64(len(methods))
	lcom5 := (m - float64(total)/float64(len(usage))) / (m - 1)
	return math.Max(0, lcom5)
}

// MethodAttributeRatio divides method count by distinct instance attribute
// count. A class with methods but no attributes returns the method count
// itself, the utility-class pattern.
func MethodAttributeRatio(class *parser.Node) float64 {
	methods := MethodsOf(class)
	attrs := map[string]bool{}
	for _, method := range methods {
		for attr := range methodSelfAttributes(method) {
			attrs[attr] = true
		}
	}
	if len(attrs) == 0 {
		return float64(len(methods))
	}
	return float64(len(methods)) / float64(len(attrs))
}

// InterfaceCohesion scores how uniform the public methods look from outside:
// the average of parameter-count consistency (1 - stdev/max(1, mean),
// clamped to [0, 1]) and return-pattern consistency (the share of methods
// agreeing with the majority on whether they return a value).
func InterfaceCohesion(class *parser.Node) float64 {
	var public []*parser.Node
	for _, method := range MethodsOf(class) {
		if !isPrivateName(method.Name) {
			public = append(public, method)
		}
	}
	if len(public) <= 1 {
		return 1.0
	}

	paramCounts := make([]float64, 0, len(public))
	returning := 0
	for _, method := range public {
		paramCounts = append(paramCounts, float64(regularParamCount(method)))
		if hasReturnStatement(method) {
			returning++
		}
	}

	mean := meanOf(paramCounts)
	paramConsistency := 1 - stdevOf(paramCounts)/math.Max(1, mean)
	paramConsistency = math.Max(0, math.Min(1, paramConsistency))

	majority := returning
	if other := len(public) - returning; other > majority {
		majority = other
	}
	returnConsistency := float64(majority) / float64(len(public))

	return (paramConsistency + returnConsistency) / 2.0
}

// BehavioralCohesion is the fraction of calls inside the class that target
// the class's own methods through self. No calls at all scores a neutral
// 0.5.
func BehavioralCohesion(class *parser.Node) float64 {
	methods := MethodsOf(class)
	if len(methods) <= 1 {
		return 1.0
	}

	names := map[string]bool{}
	for _, m := range methods {
		names[m.Name] = true
	}

	internal, total := 0, 0
	for _, method := range methods {
		method.Walk(func(n *parser.Node) bool {
			if n.Type != parser.NodeCall {
				return true
			}
			total++
			if fn := n.Func; fn != nil && isSelfAttribute(fn) && names[fn.Name] {
				internal++
			}
			return true
		})
	}
	if total == 0 {
		return 0.5
	}
	return float64(internal) / float64(total)
}

// methodSelfAttributes collects the distinct self.<attr> names a method
// touches, reads and writes alike, nested closures included.
func methodSelfAttributes(method *parser.Node) map[string]bool {
	attrs := map[string]bool{}
	method.Walk(func(n *parser.Node) bool {
		if isSelfAttribute(n) {
			attrs[n.Name] = true
		}
		return true
	})
	return attrs
}

// regularParamCount counts declared parameters excluding a leading self/cls
// receiver, varargs, and keyword markers.
func regularParamCount(fn *parser.Node) int {
	count := 0
	first := true
	for _, p := range fn.Params {
		if p == nil || p.IsVararg || p.IsKwarg || p.IsKwOnly {
			continue
		}
		if first {
			first = false
			if p.Name == "self" || p.Name == "cls" {
				continue
			}
		}
		count++
	}
	return count
}

func hasReturnStatement(fn *parser.Node) bool {
	found := false
	fn.Walk(func(n *parser.Node) bool {
		if n.Type == parser.NodeReturn {
			found = true
			return false
		}
		return true
	})
	return found
}

func isPrivateName(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdevOf is the sample standard deviation; fewer than two values yield 0.
func stdevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanOf(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
