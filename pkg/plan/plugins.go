package plan

import "github.com/bpforge/blueprint/pkg/model"

// classifyPlugins splits each node's plugin set into host-agent and
// central-deployment-agent installation lists, keyed on the effective
// executor of the operations that reference the plugin (spec.md §4.3
// "Executor precedence"). A host-agent plugin is installed on the node's
// bound host (spec.md §4.3: it "appears in that host's plugins_to_install"),
// which for a Compute node is itself but for a node contained_in a Compute
// is the Compute ancestor, not the node declaring the plugin. A plugin with
// no operation at either executor is declared but not installed by this
// pass.
func classifyPlugins(nodes []*PlanNode) {
	byID := make(map[string]*PlanNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		wantHostAgent := map[string]bool{}
		wantCentral := map[string]bool{}
		for _, op := range n.Operations {
			switch op.Executor {
			case executorHostAgent:
				wantHostAgent[op.Plugin] = true
			case executorCentralDeployment:
				wantCentral[op.Plugin] = true
			}
		}
		host := byID[n.HostID]
		for _, entry := range n.Plugins {
			if wantHostAgent[entry.Name] && host != nil {
				host.PluginsToInstall = append(host.PluginsToInstall, entry)
			}
			if wantCentral[entry.Name] {
				n.DeploymentPluginsToInstall = append(n.DeploymentPluginsToInstall, entry)
			}
		}
	}
}

// unionPluginEntries dedups pick(n) across every node by plugin name,
// preserving first-seen order.
func unionPluginEntries(nodes []*PlanNode, pick func(*PlanNode) []PluginEntry) []PluginEntry {
	seen := map[string]bool{}
	var out []PluginEntry
	for _, n := range nodes {
		for _, entry := range pick(n) {
			if seen[entry.Name] {
				continue
			}
			seen[entry.Name] = true
			out = append(out, entry)
		}
	}
	return out
}

// collectWorkflowPlugins returns every plugin referenced by a workflow
// mapping, deduped by name.
func collectWorkflowPlugins(bp *model.Blueprint) []PluginEntry {
	seen := map[string]bool{}
	var out []PluginEntry
	for _, wf := range bp.Workflows {
		if wf.Plugin == "" || seen[wf.Plugin] {
			continue
		}
		def, ok := bp.Plugins[wf.Plugin]
		if !ok {
			continue
		}
		seen[wf.Plugin] = true
		out = append(out, PluginEntry{Name: wf.Plugin, Attributes: def})
	}
	return out
}
