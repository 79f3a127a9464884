package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/model"
	"taskboard/pkg/client"
)

var (
	listSearch string
	listView   string

	taskDescription string
	taskPriority    string
	taskStatus      string
	taskCategory    string
	taskDue         string
	taskNote        bool
	taskTitle       string
	clearDesc       bool
	clearDue        bool
)

// list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks (notes are excluded)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// notes
var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE:  runNotes,
}

// stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task progress statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

// show
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task or note",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// add
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task or note",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

// update
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a task or note",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

// toggle
var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a task done, or back to todo if it is already done",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

// rm
var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Delete a task or note",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive title filter")
	listCmd.Flags().StringVar(&listView, "view", "all", "all, active or completed")

	for _, cmd := range []*cobra.Command{addCmd, updateCmd} {
		cmd.Flags().StringVar(&taskDescription, "description", "", "description or note body")
		cmd.Flags().StringVar(&taskPriority, "priority", "", "low, medium or high")
		cmd.Flags().StringVar(&taskStatus, "status", "", "todo, in-progress or done")
		cmd.Flags().StringVar(&taskCategory, "category", "", "category label")
		cmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
		cmd.Flags().BoolVar(&taskNote, "note", false, "store as a note")
	}
	updateCmd.Flags().StringVar(&taskTitle, "title", "", "new title")
	updateCmd.Flags().BoolVar(&clearDesc, "clear-description", false, "remove the description")
	updateCmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")

	rootCmd.AddCommand(listCmd, notesCmd, statsCmd, showCmd, addCmd, updateCmd, toggleCmd, rmCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	view, err := board.ParseView(listView)
	if err != nil {
		return err
	}

	tasks, err := newClient().Tasks(cmd.Context())
	if err != nil {
		return err
	}

	filtered := board.Filter{Search: listSearch, View: view}.Apply(tasks)
	if len(filtered) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTaskTable(filtered, time.Now()))
	return nil
}

func runNotes(cmd *cobra.Command, args []string) error {
	tasks, err := newClient().Tasks(cmd.Context())
	if err != nil {
		return err
	}

	notes := board.Notes(tasks)
	if len(notes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatNoteTable(notes))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	tasks, err := newClient().Tasks(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatStats(board.Summarize(tasks)))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	task, err := newClient().Task(cmd.Context(), id)
	if client.IsNotFound(err) {
		return fmt.Errorf("task not found: %d", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTaskDetail(task, time.Now()))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	fields := client.Fields{"title": args[0]}
	collectFields(cmd, fields)

	task, err := newClient().CreateTask(cmd.Context(), fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %d: %s\n", task.ID, task.Title)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	fields := client.Fields{}
	if cmd.Flags().Changed("title") {
		fields["title"] = taskTitle
	}
	collectFields(cmd, fields)
	if clearDesc {
		fields["description"] = nil
	}
	if clearDue {
		fields["dueDate"] = nil
	}
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update")
	}

	task, err := newClient().UpdateTask(cmd.Context(), id, fields)
	if client.IsNotFound(err) {
		return fmt.Errorf("task not found: %d", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d: %s\n", task.ID, task.Title)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	c := newClient()
	task, err := c.Task(cmd.Context(), id)
	if client.IsNotFound(err) {
		return fmt.Errorf("task not found: %d", id)
	}
	if err != nil {
		return err
	}

	next := model.StatusDone
	if task.Status == model.StatusDone {
		next = model.StatusTodo
	}
	task, err = c.UpdateTask(cmd.Context(), id, client.Fields{"status": next})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d: %s -> %s\n", task.ID, task.Title, task.Status)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	if err := newClient().DeleteTask(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
	return nil
}

// collectFields 只发送显式设置过的 flag，其余字段由服务端决定默认值或保持不变
func collectFields(cmd *cobra.Command, fields client.Fields) {
	flags := cmd.Flags()
	if flags.Changed("description") {
		fields["description"] = taskDescription
	}
	if flags.Changed("priority") {
		fields["priority"] = taskPriority
	}
	if flags.Changed("status") {
		fields["status"] = taskStatus
	}
	if flags.Changed("category") {
		fields["category"] = taskCategory
	}
	if flags.Changed("due") {
		fields["dueDate"] = taskDue
	}
	if flags.Changed("note") {
		fields["isNote"] = taskNote
	}
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
