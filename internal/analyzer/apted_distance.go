package analyzer

// TreeDistanceResult carries the outcome of a detailed tree comparison.
type TreeDistanceResult struct {
	Tree1Size  int
	Tree2Size  int
	Distance   float64
	Similarity float64
}

// APTEDAnalyzer computes tree edit distance between ordered labeled trees
// using the Zhang-Shasha keyroot decomposition. Distance is the minimal
// total cost of insert, delete, and rename operations transforming one
// tree into the other under the configured cost model.
type APTEDAnalyzer struct {
	costModel CostModel
}

// NewAPTEDAnalyzer creates an analyzer with the given cost model.
// A nil cost model falls back to the default unit-cost model.
func NewAPTEDAnalyzer(costModel CostModel) *APTEDAnalyzer {
	if costModel == nil {
		costModel = NewDefaultCostModel()
	}
	return &APTEDAnalyzer{costModel: costModel}
}

// ComputeDistance returns the edit distance between two trees. A nil tree
// compares as empty, so the distance to it is the cost of deleting or
// inserting every node of the other tree.
func (a *APTEDAnalyzer) ComputeDistance(tree1, tree2 *TreeNode) float64 {
	if tree1 == nil && tree2 == nil {
		return 0.0
	}
	if tree1 == nil {
		return a.subtreeInsertCost(tree2)
	}
	if tree2 == nil {
		return a.subtreeDeleteCost(tree1)
	}

	keyRoots1 := PrepareTreeForAPTED(tree1)
	keyRoots2 := PrepareTreeForAPTED(tree2)
	nodes1 := postOrderNodes(tree1)
	nodes2 := postOrderNodes(tree2)

	treeDist := make([][]float64, len(nodes1))
	for i := range treeDist {
		treeDist[i] = make([]float64, len(nodes2))
	}

	// Key roots ascend, so the forest case below always finds the
	// subtree distances it needs already filled in.
	for _, i := range keyRoots1 {
		for _, j := range keyRoots2 {
			a.computeTreeDistance(nodes1, nodes2, i, j, treeDist)
		}
	}

	return treeDist[len(nodes1)-1][len(nodes2)-1]
}

// computeTreeDistance fills treeDist for the subtree pair rooted at the
// key roots i and j, via the forest distance table for their spans.
func (a *APTEDAnalyzer) computeTreeDistance(nodes1, nodes2 []*TreeNode, i, j int, treeDist [][]float64) {
	li := nodes1[i].LeftMostLeaf
	lj := nodes2[j].LeftMostLeaf

	rows := i - li + 2
	cols := j - lj + 2
	forestDist := make([][]float64, rows)
	for r := range forestDist {
		forestDist[r] = make([]float64, cols)
	}

	for r := 1; r < rows; r++ {
		forestDist[r][0] = forestDist[r-1][0] + a.costModel.Delete(nodes1[li+r-1])
	}
	for c := 1; c < cols; c++ {
		forestDist[0][c] = forestDist[0][c-1] + a.costModel.Insert(nodes2[lj+c-1])
	}

	for r := 1; r < rows; r++ {
		for c := 1; c < cols; c++ {
			n1 := nodes1[li+r-1]
			n2 := nodes2[lj+c-1]

			deleteCost := forestDist[r-1][c] + a.costModel.Delete(n1)
			insertCost := forestDist[r][c-1] + a.costModel.Insert(n2)

			if n1.LeftMostLeaf == li && n2.LeftMostLeaf == lj {
				// Both prefixes are whole trees rooted at n1 and n2.
				renameCost := forestDist[r-1][c-1] + a.costModel.Rename(n1, n2)
				forestDist[r][c] = min3(deleteCost, insertCost, renameCost)
				treeDist[n1.PostOrderID][n2.PostOrderID] = forestDist[r][c]
			} else {
				prefixRow := n1.LeftMostLeaf - li
				prefixCol := n2.LeftMostLeaf - lj
				subtreeCost := forestDist[prefixRow][prefixCol] + treeDist[n1.PostOrderID][n2.PostOrderID]
				forestDist[r][c] = min3(deleteCost, insertCost, subtreeCost)
			}
		}
	}
}

// ComputeSimilarity returns a similarity score in [0, 1], where 1.0 means
// the trees are identical under the cost model. The distance is normalized
// against the cost of rebuilding tree2 from scratch after deleting tree1.
func (a *APTEDAnalyzer) ComputeSimilarity(tree1, tree2 *TreeNode) float64 {
	if tree1 == nil && tree2 == nil {
		return 1.0
	}

	distance := a.ComputeDistance(tree1, tree2)
	worstCase := a.subtreeDeleteCost(tree1) + a.subtreeInsertCost(tree2)
	if worstCase == 0 {
		return 1.0
	}

	similarity := 1.0 - distance/worstCase
	if similarity < 0 {
		return 0.0
	}
	if similarity > 1 {
		return 1.0
	}
	return similarity
}

// ComputeDetailedDistance returns sizes, distance, and similarity in one
// result for reporting.
func (a *APTEDAnalyzer) ComputeDetailedDistance(tree1, tree2 *TreeNode) *TreeDistanceResult {
	result := &TreeDistanceResult{}
	if tree1 != nil {
		result.Tree1Size = tree1.Size()
	}
	if tree2 != nil {
		result.Tree2Size = tree2.Size()
	}
	result.Distance = a.ComputeDistance(tree1, tree2)
	result.Similarity = a.ComputeSimilarity(tree1, tree2)
	return result
}

func (a *APTEDAnalyzer) subtreeDeleteCost(node *TreeNode) float64 {
	if node == nil {
		return 0.0
	}
	cost := a.costModel.Delete(node)
	for _, child := range node.Children {
		cost += a.subtreeDeleteCost(child)
	}
	return cost
}

func (a *APTEDAnalyzer) subtreeInsertCost(node *TreeNode) float64 {
	if node == nil {
		return 0.0
	}
	cost := a.costModel.Insert(node)
	for _, child := range node.Children {
		cost += a.subtreeInsertCost(child)
	}
	return cost
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
