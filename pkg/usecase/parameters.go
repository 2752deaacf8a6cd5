package usecase

// Reserved deployment parameter names.
const (
	ParamUseCaseUUID            = "UseCaseUUID"
	ParamUseCaseConfigRecordKey = "UseCaseConfigRecordKey"
	ParamUseCaseConfigTableName = "UseCaseConfigTableName"
)

// Optional deployment parameter names understood by the templates.
const (
	ParamExistingCognitoUserPoolID     = "ExistingCognitoUserPoolId"
	ParamExistingCognitoUserPoolClient = "ExistingCognitoUserPoolClient"
	ParamCognitoDomainPrefix           = "CognitoDomainPrefix"
	ParamDefaultUserEmail              = "DefaultUserEmail"
	ParamDeployUI                      = "DeployUI"
	ParamVpcEnabled                    = "VpcEnabled"
	ParamExistingVpcID                 = "ExistingVpcId"
	ParamExistingPrivateSubnetIDs      = "ExistingPrivateSubnetIds"
	ParamExistingSecurityGroupIDs      = "ExistingSecurityGroupIds"
	ParamKnowledgeBaseType             = "KnowledgeBaseType"
	ParamExistingKendraIndexID         = "ExistingKendraIndexId"
	ParamBedrockKnowledgeBaseID        = "BedrockKnowledgeBaseId"
	ParamUseInferenceProfile           = "UseInferenceProfile"
)

// Parameter is one named deployment parameter passed verbatim to the
// provisioning engine.
type Parameter struct {
	Key   string `json:"ParameterKey" yaml:"key"`
	Value string `json:"ParameterValue" yaml:"value"`
}

// Parameters is an ordered list of deployment parameters. Keys are unique;
// setting an existing key replaces its value in place.
type Parameters []Parameter

// Get returns the value for key and whether it was present.
func (p Parameters) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or "" if absent.
func (p Parameters) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Set replaces the value of key, appending it when absent.
func (p *Parameters) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Parameter{Key: key, Value: value})
}

// Delete removes key if present.
func (p *Parameters) Delete(key string) {
	out := (*p)[:0]
	for _, param := range *p {
		if param.Key != key {
			out = append(out, param)
		}
	}
	*p = out
}

// Keys returns the parameter names in order.
func (p Parameters) Keys() []string {
	keys := make([]string, len(p))
	for i, param := range p {
		keys[i] = param.Key
	}
	return keys
}

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	copy(out, p)
	return out
}

// ParametersFromMap builds Parameters from a map, ordering keys as given.
// Keys missing from order are appended in map iteration order.
func ParametersFromMap(m map[string]string, order ...string) Parameters {
	var out Parameters
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if v, ok := m[k]; ok && !seen[k] {
			out.Set(k, v)
			seen[k] = true
		}
	}
	for k, v := range m {
		if !seen[k] {
			out.Set(k, v)
		}
	}
	return out
}
