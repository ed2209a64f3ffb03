// Package router implements the query complexity analyzer and backend
// router (C8): a Cypher query is scored and routed to the in-process
// graph or an external graph database, ported from query_router.py's
// QueryComplexityAnalyzer/QueryRouter/QueryRouterManager.
package router

import (
	"regexp"
	"strings"
)

// Scoring constants, identical to query_router.py.
const (
	scorePerMatch         = 20
	scorePerDepth         = 30
	scoreVariableLength   = 80
	scoreEdgeTraversal    = 40
	scoreAggregation      = 50
	scoreUnion            = 40
	scorePerWhereOperator = 8
	scoreOrderBy          = 15
	scoreLimit            = 10
	scoreDistinct         = 20
)

var (
	matchRe          = regexp.MustCompile(`\bMATCH\b`)
	variableLengthRe = regexp.MustCompile(`\[[^\]]*\*\d+\.\.\d+[^\]]*\]`)
	variableDepthRe  = regexp.MustCompile(`\[[^\]]*\*\d+\.\.(\d+)[^\]]*\]`)
	anyTraversalRe   = regexp.MustCompile(`-\[.*?\]-`)
	directedArrowRe  = regexp.MustCompile(`-\[.*?\]->`)
	whereOperatorRe  = regexp.MustCompile(`\bAND\b|\bOR\b`)
	returnClauseRe   = regexp.MustCompile(`(?i)RETURN\s+(.+?)(?:ORDER|SKIP|LIMIT|$)`)
)

var aggregationFuncs = []string{"COUNT", "SUM", "AVG", "MIN", "MAX", "COLLECT"}

// Complexity is the analysis result for one query.
type Complexity struct {
	Score                int
	IsSimple             bool
	IsComplex            bool
	RequiresTraversal    bool
	RequiresAggregation  bool
	HasUnion             bool
	Depth                int
	Operators            []string
}

// SimpleThreshold/ComplexThreshold match query_router.py's class
// constants.
const (
	SimpleThreshold  = 50
	ComplexThreshold = 150
)

// Analyze scores a Cypher query string per query_router.py's
// QueryComplexityAnalyzer.analyze.
func Analyze(query string) Complexity {
	score := 0
	var operators []string
	upper := strings.ToUpper(query)

	matchCount := len(matchRe.FindAllString(upper, -1))
	score += matchCount * scorePerMatch

	hasVarLength := variableLengthRe.MatchString(query)
	if hasVarLength {
		score += scoreVariableLength
		operators = append(operators, "VARIABLE_LENGTH_PATH")
	}

	depth := extractDepth(query)
	if depth > 0 {
		score += depth * scorePerDepth
	}

	hasAnyTraversal := anyTraversalRe.MatchString(query)
	if hasAnyTraversal {
		score += scoreEdgeTraversal
		operators = append(operators, "EDGE_TRAVERSAL")
	}

	hasGroupBy := strings.Contains(upper, "GROUP BY")
	hasAggregation := hasGroupBy
	if !hasAggregation {
		for _, fn := range aggregationFuncs {
			if strings.Contains(upper, fn) {
				hasAggregation = true
				break
			}
		}
	}
	if hasAggregation {
		score += scoreAggregation
		if hasGroupBy {
			operators = append(operators, "GROUP BY")
		} else {
			operators = append(operators, "AGGREGATION")
		}
	}

	hasUnion := strings.Contains(upper, "UNION")
	if hasUnion {
		score += scoreUnion
		operators = append(operators, "UNION")
	}

	whereConditions := len(whereOperatorRe.FindAllString(upper, -1))
	score += whereConditions * scorePerWhereOperator

	if strings.Contains(upper, "ORDER BY") {
		score += scoreOrderBy
		operators = append(operators, "ORDER_BY")
	}
	if strings.Contains(upper, "SKIP") || strings.Contains(upper, "LIMIT") {
		score += scoreLimit
		operators = append(operators, "LIMIT")
	}

	if ret := extractReturnClause(query); ret != "" {
		if strings.Contains(strings.ToUpper(ret), "DISTINCT") {
			score += scoreDistinct
			operators = append(operators, "DISTINCT")
		}
	}

	return Complexity{
		Score:               score,
		IsSimple:            score < SimpleThreshold,
		IsComplex:           score >= ComplexThreshold,
		RequiresTraversal:   hasVarLength || hasAnyTraversal,
		RequiresAggregation: hasAggregation,
		HasUnion:            hasUnion,
		Depth:               depth,
		Operators:           operators,
	}
}

func extractDepth(query string) int {
	if m := variableDepthRe.FindStringSubmatch(query); len(m) > 1 {
		return atoiSafe(m[1])
	}
	if arrows := len(directedArrowRe.FindAllString(query, -1)); arrows > 0 {
		return arrows
	}
	return len(anyTraversalRe.FindAllString(query, -1))
}

func extractReturnClause(query string) string {
	m := returnClauseRe.FindStringSubmatch(query)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
