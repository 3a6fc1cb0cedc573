// Package topics groups an interval's emerging keywords into topics.
//
// Keywords are clustered by Louvain-style modularity optimization over their
// co-occurrence weights, so keywords that appear together more often than
// chance end up in the same topic.
package topics

import (
	"fmt"
	"sort"
	"strings"
)

// maxPasses bounds the local-move phase.
const maxPasses = 100

// labelSize is the number of keywords named in a topic label.
const labelSize = 3

// Weighter reports the co-occurrence weight between two keywords.
// *graph.WeightedGraph satisfies it.
type Weighter interface {
	Weight(word1, word2 string) int
}

// Topic is a group of keywords that co-occur with each other.
type Topic struct {
	ID       int      `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`

	// DEC is the sum of the member keywords' DEC values.
	DEC float64 `json:"dec"`
}

// Detect clusters keywords by co-occurrence. Keywords keep the order they are
// given in within each topic, and topics are ordered by descending DEC.
// The result is deterministic for a given input order.
func Detect(g Weighter, keywords []string, dec map[string]float64) []Topic {
	n := len(keywords)
	if n == 0 {
		return nil
	}

	matrix := adjacency(g, keywords)
	communities := assignCommunities(matrix)

	byCommunity := make(map[int][]string)
	for i, comm := range communities {
		byCommunity[comm] = append(byCommunity[comm], keywords[i])
	}

	topics := make([]Topic, 0, len(byCommunity))
	for _, members := range byCommunity {
		t := Topic{Keywords: members, Label: label(members)}
		for _, kw := range members {
			t.DEC += dec[kw]
		}
		topics = append(topics, t)
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].DEC != topics[j].DEC {
			return topics[i].DEC > topics[j].DEC
		}
		return topics[i].Keywords[0] < topics[j].Keywords[0]
	})
	for i := range topics {
		topics[i].ID = i + 1
	}
	return topics
}

// adjacency builds the symmetric weight matrix of the keyword subgraph.
func adjacency(g Weighter, keywords []string) [][]float64 {
	n := len(keywords)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := float64(g.Weight(keywords[i], keywords[j]))
			matrix[i][j] = w
			matrix[j][i] = w
		}
	}
	return matrix
}

// assignCommunities runs the Louvain local-move phase. Nodes are visited in
// index order. Returns a slice where index i holds node i's community,
// numbered consecutively from zero.
func assignCommunities(adjMatrix [][]float64) []int {
	n := len(adjMatrix)
	if n == 0 {
		return []int{}
	}

	communities := make([]int, n)
	for i := range communities {
		communities[i] = i
	}
	if n == 1 {
		return communities
	}

	var totalWeight float64
	degrees := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			degrees[i] += adjMatrix[i][j]
		}
		totalWeight += degrees[i]
	}
	if totalWeight == 0 {
		return communities
	}

	improved := true
	for pass := 0; improved && pass < maxPasses; pass++ {
		improved = false

		for node := 0; node < n; node++ {
			current := communities[node]
			bestComm := current
			bestGain := modularityGain(node, current, communities, adjMatrix, degrees, totalWeight)

			neighborComms := make(map[int]bool)
			for j := 0; j < n; j++ {
				if adjMatrix[node][j] > 0 {
					neighborComms[communities[j]] = true
				}
			}

			// Visit candidate communities in order so ties resolve the same
			// way on every run.
			candidates := make([]int, 0, len(neighborComms))
			for comm := range neighborComms {
				candidates = append(candidates, comm)
			}
			sort.Ints(candidates)

			for _, comm := range candidates {
				if comm == current {
					continue
				}
				if gain := modularityGain(node, comm, communities, adjMatrix, degrees, totalWeight); gain > bestGain {
					bestGain = gain
					bestComm = comm
				}
			}

			if bestComm != current {
				communities[node] = bestComm
				improved = true
			}
		}
	}

	renumber := make(map[int]int)
	for i, comm := range communities {
		id, ok := renumber[comm]
		if !ok {
			id = len(renumber)
			renumber[comm] = id
		}
		communities[i] = id
	}
	return communities
}

// modularityGain is the modularity change of placing node in comm, measured
// against the node standing alone.
func modularityGain(node, comm int, communities []int, adjMatrix [][]float64, degrees []float64, totalWeight float64) float64 {
	var sigmaIn, sigmaTot float64
	for j, c := range communities {
		if c == comm && j != node {
			sigmaIn += adjMatrix[node][j]
			sigmaTot += degrees[j]
		}
	}

	ki := degrees[node]
	return sigmaIn/totalWeight - (ki*sigmaTot)/(totalWeight*totalWeight)
}

func label(members []string) string {
	if len(members) <= labelSize {
		return strings.Join(members, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(members[:labelSize], ", "), len(members)-labelSize)
}
