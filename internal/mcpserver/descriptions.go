package mcpserver

// Tool descriptions carry interpretation guidance for the calling model.

func describeAnalyzeCode() string {
	return `Scores a Python snippet for cognitive complexity.

USE WHEN:
- Checking a function before proposing it as an edit
- Comparing two candidate refactorings of the same logic

INTERPRETING RESULTS:
- Each function is scored independently; nested functions and lambdas add to their parent
- Scores above the threshold (default 15) are FAILED
- Increments come from breaks in linear flow (if, loops, except, boolean operator runs, recursion)
  and nesting multiplies the cost of structures inside other structures

METRICS RETURNED:
- Per-function: name, complexity, line_start, line_end
- complexity: total of all functions`
}

func describeAnalyzePaths() string {
	return `Scores every Python file under the given paths for cognitive complexity.

USE WHEN:
- Finding the hardest-to-read functions in a project
- Checking whether a change pushed a function over the threshold
- Choosing refactoring targets

INTERPRETING RESULTS:
- passed=false marks a function above max_complexity_allowed
- failed lists failing function names per file, sorted by name
- summary.complexity gives mean, median, p90 and max across all functions
- errors lists paths that do not exist, are not Python, or could not be parsed

METRICS RETURNED:
- files: per-file function rows with complexity and line span
- failed: failing functions grouped by file
- summary: file, function and failure counts plus distribution statistics`
}

func describeDiffPaths() string {
	return `Compares the cognitive complexity of Python files now against a git revision.

USE WHEN:
- Reviewing whether a branch made code harder to read
- Summarising complexity changes for a pull request

INTERPRETING RESULTS:
- REGRESSED: the function scores higher than at the revision
- IMPROVED: the function scores lower
- NEW / REMOVED: the function exists on only one side
- net is the sum of all deltas; positive means the code got more complex

METRICS RETURNED:
- entries: path, function, status, before, after, delta
- new, removed, regressed, improved, unchanged: counts by status
- net: total delta`
}
