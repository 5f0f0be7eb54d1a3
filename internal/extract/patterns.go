// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "regexp"

// Pattern families for efficacy metrics. Order matters: within a family
// the first matching pattern wins, so specific clinical phrasings come
// before looser catch-alls.

var responsePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:of\s+)?(?:patients?\s+)?(?:responded|achieved|had|showed|experienced|demonstrated)\s+(?:a\s+)?(?:complete|partial|overall|clinical|therapeutic)?\s*(?:response|remission|improvement|benefit)`),
	regexp.MustCompile(`(?i)(?:response|remission|improvement)\s+rate[^\d]*(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(?:overall|complete|partial)\s+response[^\d]*(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(?:efficacy|effectiveness|success)\s+(?:rate\s+)?(?:of\s+)?(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:efficacy|effectiveness|success)`),
	regexp.MustCompile(`(?i)(?:achieved|attained|reached)\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*%`),

	// Looser clinical phrasings.
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%[^.]{0,30}(?:improve|better|respond|effect)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+of\s+patients`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:were|was|had)`),
	regexp.MustCompile(`(?i)(?:rate|rates)\s+(?:of|were|was)\s+(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:for|in|with)\s+(?:the\s+)?(?:treatment|drug|therapy)`),
	regexp.MustCompile(`(?i)(?:treatment|therapeutic)\s+(?:success|benefit)[^\d]*(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:clinical|therapeutic)\s+(?:benefit|improvement)`),
	regexp.MustCompile(`(?i)(?:reduced|decreased|lowered)\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:reduction|decrease)`),

	// Control and placebo comparisons.
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:vs|versus|compared)`),
	regexp.MustCompile(`(?i)(?:treatment|drug)\s+group[^\d]*(\d+(?:\.\d+)?)\s*%`),

	// Survival outcomes.
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:survival|survived|alive)`),
	regexp.MustCompile(`(?i)(?:survival|outcome)\s+(?:rate|rates)[^\d]*(\d+(?:\.\d+)?)\s*%`),
}

var nonResponsePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:of\s+)?(?:patients?\s+)?(?:did\s+)?not?\s+respond`),
	regexp.MustCompile(`(?i)non[- ]?response\s+(?:rate\s+)?(?:of\s+)?(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:were\s+)?non[- ]?responders?`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:did\s+not|failed\s+to)\s+respond`),
	regexp.MustCompile(`(?i)(?:treatment\s+)?failure\s+(?:occurred\s+in\s+)?(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:had|showed|experienced)\s+(?:treatment\s+)?failure`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:failed|failure)`),
	regexp.MustCompile(`(?i)failed\s+in\s+(\d+(?:\.\d+)?)\s*%`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:discontinued|stopped)`),
	regexp.MustCompile(`(?i)(?:adverse|side)\s+(?:events?|effects?)[^\d]*(\d+(?:\.\d+)?)\s*%`),
}

// Sample sizes. Digit groups may carry thousands commas ("2,000").
var samplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:n\s*=\s*|sample\s+size\s+of\s+)([\d,]+)`),
	regexp.MustCompile(`(?i)(?:trial|study|cohort)\s+of\s+([\d,]+)\s+(?:patients|subjects|participants)`),
	regexp.MustCompile(`(?i)([\d,]+)\s+(?:patients|subjects|participants)(?:\s+with|\s+received|\s+were|\s+on)`),
	regexp.MustCompile(`(?i)(?:included|enrolled|studied)\s+([\d,]+)\s+(?:patients|subjects|participants)`),
	regexp.MustCompile(`(?i)(?:a\s+)?(?:cohort|study|trial)\s+(?:of\s+)?([\d,]+)\s+(?:\w+\s+){0,4}(?:patients|subjects)`),
	regexp.MustCompile(`(?i)([\d,]+)\s+(?:\w+\s+){0,3}(?:patients|subjects|participants)\s+(?:received|were|with)`),
}

var pValuePattern = regexp.MustCompile(`(?i)p\s*[<>=]\s*(\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)

// Genotype subgroups: a CYP gene with a metabolizer phenotype, or a
// phenotype-specific response rate.
var subgroupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(CYP\d+[A-Z]\d+)\s+(poor|extensive|rapid|intermediate)\s+metabolizers?`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+in\s+(poor|extensive|rapid)\s+metabolizers`),
}

var anyPercentagePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
