package board

// DistinctBoards returns the non-empty board names of tasks, deduplicated
// in first-seen order.
func DistinctBoards(tasks []Task) []string {
	seen := make(map[string]bool)
	boards := []string{}
	for _, t := range tasks {
		if t.Board == "" || seen[t.Board] {
			continue
		}
		seen[t.Board] = true
		boards = append(boards, t.Board)
	}
	return boards
}

func TasksForBoard(tasks []Task, board string) []Task {
	out := []Task{}
	for _, t := range tasks {
		if t.Board == board {
			out = append(out, t)
		}
	}
	return out
}

func TasksForBoardAndStatus(tasks []Task, board string, status Status) []Task {
	out := []Task{}
	for _, t := range tasks {
		if t.Board == board && t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// ResolveActiveBoard keeps previous while it still exists, otherwise falls
// back to the first board. ok is false when there are no boards.
func ResolveActiveBoard(boards []string, previous string) (string, bool) {
	for _, b := range boards {
		if b == previous && previous != "" {
			return previous, true
		}
	}
	if len(boards) == 0 {
		return "", false
	}
	return boards[0], true
}

type Column struct {
	Status Status
	Tasks  []Task
}

// Columns groups the tasks of board into one column per entry of
// Statuses. A column holds exactly the tasks whose status equals its own
// Status; tasks with any other status appear in no column.
func Columns(tasks []Task, board string) []Column {
	cols := make([]Column, 0, len(Statuses))
	for _, s := range Statuses {
		cols = append(cols, Column{Status: s, Tasks: TasksForBoardAndStatus(tasks, board, s)})
	}
	return cols
}

// Unlisted returns the tasks of board that Columns leaves out.
func Unlisted(tasks []Task, board string) []Task {
	out := []Task{}
	for _, t := range TasksForBoard(tasks, board) {
		if !t.Status.Valid() {
			out = append(out, t)
		}
	}
	return out
}
