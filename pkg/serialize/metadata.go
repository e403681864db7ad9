package serialize

import "gopkg.in/yaml.v3"

// metadataFile 策略元数据文件的顶层结构
type metadataFile struct {
	Policies []Element `yaml:"policies"`
}

// ElementsFromYAML 解析 YAML 形式的策略元数据
//
// 文件格式：
//
//	policies:
//	  - element: policy
//	    attributes: {name: angle, class: UniformQuantizationPolicy, min: "-3.15", max: "3.15", nbits: "12"}
//	  - element: alias
//	    attributes: {name: yaw, policy: angle}
func ElementsFromYAML(data []byte) ([]Element, error) {
	var f metadataFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Policies, nil
}
