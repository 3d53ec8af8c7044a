package loader

import (
	"fmt"

	"github.com/bpforge/blueprint/pkg/dslerrors"
	"github.com/bpforge/blueprint/pkg/model"
	"github.com/bpforge/blueprint/pkg/version"
)

// decodeBlueprint converts a mergedDocument's raw sections into the typed
// model.Blueprint, applying only structural decoding (shape, presence) —
// schema validation (required/default enforcement, scalar coercion) is the
// property-schema package's job, applied later against concrete templates.
// nodeTemplateOrderHint is the best-effort source-order of node_templates
// keys in the root document (see order_hint.go).
func decodeBlueprint(merged *mergedDocument, v version.Version, nodeTemplateOrderHint []string) (*model.Blueprint, error) {
	bp := model.NewBlueprint()
	bp.DSLVersion = v

	if desc, ok := merged.scalars["description"].(string); ok {
		bp.Description = desc
	}
	bp.DSLDefinitions = merged.dsl

	inputsRaw, err := asMap("inputs", merged.sections["inputs"])
	if err != nil {
		return nil, err
	}
	for name, raw := range inputsRaw {
		def, err := decodeInputDef(fmt.Sprintf("inputs.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Inputs[name] = def
	}

	pluginsRaw, err := asMap("plugins", merged.sections["plugins"])
	if err != nil {
		return nil, err
	}
	for name, raw := range pluginsRaw {
		m, err := asMap(fmt.Sprintf("plugins.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Plugins[name] = model.PluginDef(m)
	}

	dataTypesRaw, err := asMap("data_types", merged.sections["data_types"])
	if err != nil {
		return nil, err
	}
	for name, raw := range dataTypesRaw {
		dt, err := decodeDataType(name, raw)
		if err != nil {
			return nil, err
		}
		bp.DataTypes[name] = dt
	}

	nodeTypesRaw, err := asMap("node_types", merged.sections["node_types"])
	if err != nil {
		return nil, err
	}
	for name, raw := range nodeTypesRaw {
		nt, err := decodeNodeType(name, raw)
		if err != nil {
			return nil, err
		}
		bp.NodeTypes[name] = nt
	}

	relTypesRaw, err := asMap("relationships", merged.sections["relationships"])
	if err != nil {
		return nil, err
	}
	for name, raw := range relTypesRaw {
		rt, err := decodeRelationshipType(name, raw)
		if err != nil {
			return nil, err
		}
		bp.RelationshipTypes[name] = rt
	}

	policyTypesRaw, err := asMap("policy_types", merged.sections["policy_types"])
	if err != nil {
		return nil, err
	}
	for name, raw := range policyTypesRaw {
		pt, err := decodePolicyType(name, raw)
		if err != nil {
			return nil, err
		}
		bp.PolicyTypes[name] = pt
	}

	policyTriggersRaw, err := asMap("policy_triggers", merged.sections["policy_triggers"])
	if err != nil {
		return nil, err
	}
	bp.PolicyTriggers = policyTriggersRaw

	workflowsRaw, err := asMap("workflows", merged.sections["workflows"])
	if err != nil {
		return nil, err
	}
	for name, raw := range workflowsRaw {
		wf, err := decodeWorkflowDef(fmt.Sprintf("workflows.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Workflows[name] = wf
	}

	groupsRaw, err := asMap("groups", merged.sections["groups"])
	if err != nil {
		return nil, err
	}
	for name, raw := range groupsRaw {
		g, err := decodeGroupDef(fmt.Sprintf("groups.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Groups[name] = g
	}

	policiesRaw, err := asMap("policies", merged.sections["policies"])
	if err != nil {
		return nil, err
	}
	for name, raw := range policiesRaw {
		p, err := decodePolicyDef(fmt.Sprintf("policies.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Policies[name] = p
	}

	capsRaw, err := asMap("capabilities", merged.sections["capabilities"])
	if err != nil {
		return nil, err
	}
	bp.Capabilities = capsRaw

	depSettingsRaw, err := asMap("deployment_settings", merged.sections["deployment_settings"])
	if err != nil {
		return nil, err
	}
	bp.DeploymentSettings = depSettingsRaw

	outputsRaw, err := asMap("outputs", merged.sections["outputs"])
	if err != nil {
		return nil, err
	}
	for name, raw := range outputsRaw {
		out, err := decodeOutputDef(fmt.Sprintf("outputs.%s", name), raw)
		if err != nil {
			return nil, err
		}
		bp.Outputs[name] = out
	}

	nodeTemplatesRaw, err := asMap("node_templates", merged.sections["node_templates"])
	if err != nil {
		return nil, err
	}
	for _, name := range orderKeys(nodeTemplatesRaw, nodeTemplateOrderHint) {
		tpl, err := decodeNodeTemplate(name, nodeTemplatesRaw[name])
		if err != nil {
			return nil, err
		}
		bp.NodeTemplates.Set(name, tpl)
	}

	return bp, nil
}

func decodeInputDef(path string, raw any) (*model.InputDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	def := &model.InputDef{}
	if t, ok := m["type"].(string); ok {
		def.Type = t
	}
	if d, ok := m["default"]; ok {
		def.Default = d
	}
	if desc, ok := m["description"].(string); ok {
		def.Description = desc
	}
	if req, ok := m["required"]; ok {
		b := toBool(req)
		def.Required = &b
	}
	return def, nil
}

func decodeOutputDef(path string, raw any) (*model.OutputDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	out := &model.OutputDef{}
	if desc, ok := m["description"].(string); ok {
		out.Description = desc
	}
	out.Value = m["value"]
	return out, nil
}

func decodePropertyDef(path string, raw any) (*model.PropertyDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	def := &model.PropertyDef{}
	if t, ok := m["type"].(string); ok {
		def.Type = t
	}
	if d, ok := m["default"]; ok {
		def.Default = d
	}
	if desc, ok := m["description"].(string); ok {
		def.Description = desc
	}
	if req, ok := m["required"]; ok {
		b := toBool(req)
		def.Required = &b
	}
	return def, nil
}

func decodePropertiesSchema(path string, raw any) (map[string]*model.PropertyDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.PropertyDef, len(m))
	for name, v := range m {
		def, err := decodePropertyDef(fmt.Sprintf("%s.%s", path, name), v)
		if err != nil {
			return nil, err
		}
		out[name] = def
	}
	return out, nil
}

func decodeOperationSource(path string, raw any) (*model.OperationSource, error) {
	switch v := raw.(type) {
	case string:
		return &model.OperationSource{Short: v, Implementation: v}, nil
	case map[string]any:
		os := &model.OperationSource{}
		if impl, ok := v["implementation"].(string); ok {
			os.Implementation = impl
		}
		if inputsRaw, ok := v["inputs"]; ok {
			inputs, err := asMap(path+".inputs", inputsRaw)
			if err != nil {
				return nil, err
			}
			os.Inputs = inputs
		}
		if exec, ok := v["executor"].(string); ok {
			os.Executor = exec
		}
		if mr, ok := v["max_retries"]; ok {
			n := toInt(mr)
			os.MaxRetries = &n
		}
		if ri, ok := v["retry_interval"]; ok {
			f := toFloat(ri)
			os.RetryInterval = &f
		}
		if to, ok := v["timeout"]; ok {
			f := toFloat(to)
			os.Timeout = &f
		}
		if tr, ok := v["timeout_recoverable"]; ok {
			b := toBool(tr)
			os.TimeoutRecoverable = &b
		}
		return os, nil
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("operation must be a string or a mapping, got %T", raw)}
	}
}

func decodeInterfaceMap(path string, raw any) (model.InterfaceMap, error) {
	if raw == nil {
		return nil, nil
	}
	ifaces, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	out := make(model.InterfaceMap, len(ifaces))
	for ifaceName, opsRaw := range ifaces {
		ops, err := asMap(fmt.Sprintf("%s.%s", path, ifaceName), opsRaw)
		if err != nil {
			return nil, err
		}
		opMap := make(map[string]*model.OperationSource, len(ops))
		for opName, opRaw := range ops {
			op, err := decodeOperationSource(fmt.Sprintf("%s.%s.%s", path, ifaceName, opName), opRaw)
			if err != nil {
				return nil, err
			}
			opMap[opName] = op
		}
		out[ifaceName] = opMap
	}
	return out, nil
}

func decodeNodeType(name string, raw any) (*model.NodeType, error) {
	m, err := asMap("node_types."+name, raw)
	if err != nil {
		return nil, err
	}
	nt := &model.NodeType{Name: name}
	if df, ok := m["derived_from"].(string); ok {
		nt.DerivedFrom = df
	}
	props, err := decodePropertiesSchema("node_types."+name+".properties", m["properties"])
	if err != nil {
		return nil, err
	}
	nt.Properties = props
	ifaces, err := decodeInterfaceMap("node_types."+name+".interfaces", m["interfaces"])
	if err != nil {
		return nil, err
	}
	nt.Interfaces = ifaces
	return nt, nil
}

func decodeRelationshipType(name string, raw any) (*model.RelationshipType, error) {
	m, err := asMap("relationships."+name, raw)
	if err != nil {
		return nil, err
	}
	rt := &model.RelationshipType{Name: name}
	if df, ok := m["derived_from"].(string); ok {
		rt.DerivedFrom = df
	}
	props, err := decodePropertiesSchema("relationships."+name+".properties", m["properties"])
	if err != nil {
		return nil, err
	}
	rt.Properties = props
	src, err := decodeInterfaceMap("relationships."+name+".source_interfaces", m["source_interfaces"])
	if err != nil {
		return nil, err
	}
	rt.SourceInterfaces = src
	tgt, err := decodeInterfaceMap("relationships."+name+".target_interfaces", m["target_interfaces"])
	if err != nil {
		return nil, err
	}
	rt.TargetInterfaces = tgt
	return rt, nil
}

func decodeDataType(name string, raw any) (*model.DataType, error) {
	m, err := asMap("data_types."+name, raw)
	if err != nil {
		return nil, err
	}
	dt := &model.DataType{Name: name}
	if df, ok := m["derived_from"].(string); ok {
		dt.DerivedFrom = df
	}
	props, err := decodePropertiesSchema("data_types."+name+".properties", m["properties"])
	if err != nil {
		return nil, err
	}
	dt.Properties = props
	return dt, nil
}

func decodePolicyType(name string, raw any) (*model.PolicyType, error) {
	m, err := asMap("policy_types."+name, raw)
	if err != nil {
		return nil, err
	}
	pt := &model.PolicyType{Name: name}
	if df, ok := m["derived_from"].(string); ok {
		pt.DerivedFrom = df
	}
	if src, ok := m["source"].(string); ok {
		pt.Source = src
	}
	props, err := decodePropertiesSchema("policy_types."+name+".properties", m["properties"])
	if err != nil {
		return nil, err
	}
	pt.Properties = props
	return pt, nil
}

func decodeWorkflowDef(path string, raw any) (*model.WorkflowDef, error) {
	switch v := raw.(type) {
	case string:
		plugin, op := splitPluginTask(v)
		return &model.WorkflowDef{Plugin: plugin, Operation: op}, nil
	case map[string]any:
		wf := &model.WorkflowDef{}
		if mapping, ok := v["mapping"].(string); ok {
			wf.Plugin, wf.Operation = splitPluginTask(mapping)
		}
		if params, ok := v["parameters"]; ok {
			p, err := asMap(path+".parameters", params)
			if err != nil {
				return nil, err
			}
			wf.Parameters = p
		}
		if cascading, ok := v["is_cascading"]; ok {
			wf.IsCascading = toBool(cascading)
		}
		return wf, nil
	default:
		return nil, &dslerrors.FormatError{Path: path, Message: fmt.Sprintf("workflow must be a string or a mapping, got %T", raw)}
	}
}

func decodeGroupDef(path string, raw any) (*model.GroupDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	g := &model.GroupDef{}
	if members, ok := m["members"]; ok {
		list, err := asList(path+".members", members)
		if err != nil {
			return nil, err
		}
		for i, item := range list {
			s, err := asString(fmt.Sprintf("%s.members[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			g.Members = append(g.Members, s)
		}
	}
	return g, nil
}

func decodePolicyDef(path string, raw any) (*model.PolicyDef, error) {
	m, err := asMap(path, raw)
	if err != nil {
		return nil, err
	}
	p := &model.PolicyDef{}
	if t, ok := m["type"].(string); ok {
		p.Type = t
	}
	if props, ok := m["properties"]; ok {
		pm, err := asMap(path+".properties", props)
		if err != nil {
			return nil, err
		}
		p.Properties = pm
	}
	if targets, ok := m["targets"]; ok {
		switch tv := targets.(type) {
		case []any:
			for i, item := range tv {
				s, err := asString(fmt.Sprintf("%s.targets[%d]", path, i), item)
				if err != nil {
					return nil, err
				}
				p.Targets = append(p.Targets, s)
			}
		case string:
			p.Targets = []string{tv}
		default:
			return nil, &dslerrors.FormatError{Path: path + ".targets", Message: fmt.Sprintf("expected a string or list, got %T", targets)}
		}
	}
	return p, nil
}

func decodeNodeTemplate(name string, raw any) (*model.NodeTemplate, error) {
	m, err := asMap("node_templates."+name, raw)
	if err != nil {
		return nil, err
	}
	nt := &model.NodeTemplate{ID: name, InstancesDeploy: 1}
	t, ok := m["type"].(string)
	if !ok || t == "" {
		return nil, &dslerrors.FormatError{Path: "node_templates." + name, Message: "missing required field 'type'"}
	}
	nt.Type = t

	if props, ok := m["properties"]; ok {
		pm, err := asMap("node_templates."+name+".properties", props)
		if err != nil {
			return nil, err
		}
		nt.Properties = pm
	}

	ifaces, err := decodeInterfaceMap("node_templates."+name+".interfaces", m["interfaces"])
	if err != nil {
		return nil, err
	}
	nt.Interfaces = ifaces

	if caps, ok := m["capabilities"]; ok {
		cm, err := asMap("node_templates."+name+".capabilities", caps)
		if err != nil {
			return nil, err
		}
		nt.Capabilities = cm
	}

	if instances, ok := m["instances"]; ok {
		im, err := asMap("node_templates."+name+".instances", instances)
		if err != nil {
			return nil, err
		}
		if deploy, ok := im["deploy"]; ok {
			nt.InstancesDeploy = toInt(deploy)
		}
	}

	if relsRaw, ok := m["relationships"]; ok {
		relList, err := asList("node_templates."+name+".relationships", relsRaw)
		if err != nil {
			return nil, err
		}
		for i, relRaw := range relList {
			relPath := fmt.Sprintf("node_templates.%s.relationships[%d]", name, i)
			relMap, err := asMap(relPath, relRaw)
			if err != nil {
				return nil, err
			}
			ri := &model.RelationshipInstance{}
			if rt, ok := relMap["type"].(string); ok {
				ri.Type = rt
			}
			if target, ok := relMap["target"].(string); ok {
				ri.Target = target
			}
			src, err := decodeInterfaceMap(relPath+".source_interfaces", relMap["source_interfaces"])
			if err != nil {
				return nil, err
			}
			ri.SourceInterfaces = src
			tgt, err := decodeInterfaceMap(relPath+".target_interfaces", relMap["target_interfaces"])
			if err != nil {
				return nil, err
			}
			ri.TargetInterfaces = tgt
			nt.Relationships = append(nt.Relationships, ri)
		}
	}

	return nt, nil
}

// splitPluginTask splits a "plugin.task" short-form operation/workflow
// mapping into its plugin and operation parts. Only the first dot
// separates plugin from operation; everything after it (which may itself
// contain dots, e.g. "tasks.create") is the operation name.
func splitPluginTask(mapping string) (plugin, operation string) {
	for i := 0; i < len(mapping); i++ {
		if mapping[i] == '.' {
			return mapping[:i], mapping[i+1:]
		}
	}
	return mapping, ""
}
