// Package testutil provides fixtures and filesystem helpers shared by the
// package tests.
package testutil

// ChainTasksJSON is the three-task example: A (stage 1) depends into B,
// B (stage 2) into C, C in stage 2.
var ChainTasksJSON = `[
  {"taskID": "A", "title": "Design schema", "description": "Draft the tables", "status": "done", "stage": "1", "childTasks": ["B"], "isVisible": true},
  {"taskID": "B", "title": "Write migrations", "description": "Versioned SQL", "status": "in_progress", "stage": "2", "childTasks": ["C"], "isVisible": true},
  {"taskID": "C", "title": "Seed data", "description": "Fixtures for staging", "status": "todo", "stage": "2", "childTasks": [], "isVisible": true}
]`

// HiddenLeafTasksJSON is ChainTasksJSON with C marked invisible.
var HiddenLeafTasksJSON = `[
  {"taskID": "A", "title": "Design schema", "stage": "1", "childTasks": ["B"], "isVisible": true},
  {"taskID": "B", "title": "Write migrations", "stage": "2", "childTasks": ["C"], "isVisible": true},
  {"taskID": "C", "title": "Seed data", "stage": "2", "childTasks": [], "isVisible": false}
]`

// KeyedTasksJSON stores tasks as an object keyed by task ID, with numeric
// stages and no taskID fields.
var KeyedTasksJSON = `{
  "t2": {"title": "Second", "stage": 2, "childTasks": [], "isVisible": true},
  "t1": {"title": "First", "stage": 1, "childTasks": ["t2"], "isVisible": true}
}`

// ChainTasksYAML is ChainTasksJSON in YAML form.
var ChainTasksYAML = `- taskID: A
  title: Design schema
  status: done
  stage: 1
  childTasks: [B]
  isVisible: true
- taskID: B
  title: Write migrations
  status: in_progress
  stage: 2
  childTasks: [C]
  isVisible: true
- taskID: C
  title: Seed data
  status: todo
  stage: 2
  childTasks: []
  isVisible: true
`

// DiamondTasksJSON has two paths from root to sink across three stages.
var DiamondTasksJSON = `[
  {"taskID": "root", "title": "Kickoff", "stage": "1", "childTasks": ["left", "right"], "isVisible": true},
  {"taskID": "left", "title": "Frontend", "stage": "2", "childTasks": ["sink"], "isVisible": true},
  {"taskID": "right", "title": "Backend", "stage": "2", "childTasks": ["sink"], "isVisible": true},
  {"taskID": "sink", "title": "Launch", "stage": "3", "childTasks": [], "isVisible": true}
]`

// EmptyTasksJSON is an empty task list.
var EmptyTasksJSON = `[]`

// InvalidTasksJSON is not parseable.
var InvalidTasksJSON = `[{"taskID": "A", `
