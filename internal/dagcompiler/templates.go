package dagcompiler

import "text/template"

// These three templated fragments are expanded to render one DAG artifact:
// a header keyed by dag_id, one task node per block, and one dependency
// line per edge.
const headerTemplateSrc = `# Generated control-plane DAG artifact. Do not edit by hand.
from pipeflow_runtime import Pipeline

dag = Pipeline(dag_id={{printf "%q" .DAGID}})
`

const taskTemplateSrc = `
{{.TaskID}} = dag.add_task(
    task_id={{printf "%q" .TaskID}},
    image={{printf "%q" .Image}},
    name={{printf "%q" .Name}},
    uuid={{printf "%q" .UUID}},
    entry_name={{printf "%q" .EntryName}},
    project={{printf "%q" .Project}},
    environment={{.Environment}},
    local_storage_path_external={{printf "%q" .LocalStoragePathExternal}},
    network_mode={{printf "%q" .NetworkMode}},
)
`

const edgeTemplateSrc = `{{.FromTask}}.set_downstream({{.ToTask}})
`

var (
	headerTemplate = template.Must(template.New("header").Parse(headerTemplateSrc))
	taskTemplate   = template.Must(template.New("task").Parse(taskTemplateSrc))
	edgeTemplate   = template.Must(template.New("edge").Parse(edgeTemplateSrc))
)

// taskNode is the template data for one rendered task.
type taskNode struct {
	TaskID                   string
	Image                    string
	Name                     string
	UUID                     string
	EntryName                string
	Project                  string
	Environment              string // pre-rendered Python dict literal
	LocalStoragePathExternal string
	NetworkMode              string
}

// dependencyEdge is the template data for one rendered dependency line.
type dependencyEdge struct {
	FromTask string
	ToTask   string
}
