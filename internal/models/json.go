package models

import (
	"database/sql/driver"
	"encoding/json"
)

// StringMap 字符串映射类型，用于存储 features/pros/cons 等标签到描述的映射
type StringMap map[string]string

// Value 实现 driver.Valuer 接口
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(StringMap)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// BoolMap 布尔映射类型，用于存储目标受众开关
type BoolMap map[string]bool

// Value 实现 driver.Valuer 接口
func (m BoolMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口
func (m *BoolMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(BoolMap)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}
