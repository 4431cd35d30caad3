package internal

import "reflect"

// IsNil 判斷介面值是否為 nil，含帶型別的 nil（typed nil）。
// 介面欄位塞進 nil 指標時 `i == nil` 為 false，這裡補上那個洞。
func IsNil(i interface{}) bool {
	if i == nil {
		return true
	}
	switch v := reflect.ValueOf(i); v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
