package demo

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Score generation profiles. Each team is assigned one profile so the
// final leaderboard shows a spread of averages and judge agreement.
const (
	caseStrongConsensus = 0
	caseStrongSplit     = 1
	caseMidConsensus    = 2
	caseMidSplit        = 3
	caseWeak            = 4
	profileCount        = 5
)

var teamAdjectives = []string{
	"Quantum", "Turbo", "Cosmic", "Rusty", "Neon", "Parallel",
	"Recursive", "Lazy", "Greedy", "Async", "Atomic", "Fuzzy",
}

var teamNouns = []string{
	"Llamas", "Pandas", "Otters", "Falcons", "Badgers", "Ferrets",
	"Walruses", "Narwhals", "Capuchins", "Herons", "Geckos", "Yaks",
}

var judgeNames = []string{
	"Ada", "Grace", "Edsger", "Barbara", "Donald", "Leslie",
	"Tony", "Frances", "John", "Margaret", "Ken", "Radia",
}

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// teamName builds a readable unique team name.
func teamName(i int) string {
	adjective := teamAdjectives[i%len(teamAdjectives)]
	noun := teamNouns[(i/len(teamAdjectives))%len(teamNouns)]
	return fmt.Sprintf("%s %s #%d", adjective, noun, i+1)
}

// judgeName cycles through the name pool, numbering repeats.
func judgeName(i int) string {
	name := judgeNames[i%len(judgeNames)]
	if i >= len(judgeNames) {
		return fmt.Sprintf("%s %d", name, i/len(judgeNames)+1)
	}
	return name
}

// criterionScoreFor draws one criterion score for a team profile. Scores
// stay within [0, maxScore]; the profile controls the center and spread.
func criterionScoreFor(profile, maxScore int) int {
	var base, spread int
	switch profile {
	case caseStrongConsensus:
		base, spread = maxScore*8/10, maxScore/10
	case caseStrongSplit:
		base, spread = maxScore*7/10, maxScore*3/10
	case caseMidConsensus:
		base, spread = maxScore*6/10, maxScore/10
	case caseMidSplit:
		base, spread = maxScore/2, maxScore*4/10
	default:
		base, spread = maxScore*3/10, maxScore*2/10
	}
	if spread < 1 {
		spread = 1
	}
	score := base - spread + randomInt(2*spread+1)
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// scoresFor draws a full rubric evaluation for a team profile.
func scoresFor(profile int, criteria []criterionInfo) []criterionScore {
	out := make([]criterionScore, len(criteria))
	for i, c := range criteria {
		out[i] = criterionScore{
			CriterionID: c.ID,
			Score:       criterionScoreFor(profile, c.MaxScore),
		}
	}
	return out
}
