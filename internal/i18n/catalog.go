package i18n

// catalog 内置文案表
var catalog = map[string]map[string]string{
	"en-US": {
		"error.bad_request":            "Invalid request parameters",
		"error.unauthorized":           "Unauthorized",
		"error.forbidden":              "Forbidden",
		"error.not_found":              "Resource not found",
		"error.internal":               "Internal server error",
		"error.rate_limited":           "Too many requests, please try again in %d seconds",
		"error.login_too_many":         "Too many login attempts, please try again in %d seconds",
		"error.rate_limit_unavailable": "Rate limiter unavailable",
		"error.auth_header_missing":    "Authorization header missing",
		"error.auth_header_invalid":    "Authorization header invalid",
		"error.token_invalid":          "Token invalid or expired",
		"error.token_revoked":          "Token has been revoked",
		"error.jwt_secret_missing":     "JWT secret not configured",
		"error.invalid_credentials":    "Invalid username or password",
		"error.password_weak":          "Password does not meet the security policy",
		"error.password_min_length":    "Password must be at least %d characters",
		"error.password_require_upper": "Password must contain an uppercase letter",
		"error.password_require_lower": "Password must contain a lowercase letter",
		"error.password_require_number": "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",
		"error.password_mismatch":      "Old password is incorrect",
		"error.referral_not_found":     "Referral not found",
		"error.click_not_found":        "Click record not found",
		"error.invalid_category":       "Invalid referral category",
		"error.invalid_price_range":    "Invalid price range",
		"error.invalid_rating":         "Rating must be between 0 and 5",
		"error.admin_not_found":        "Admin not found",
		"error.role_invalid":           "Unknown role: %s",
		"error.fetch_failed":           "Failed to fetch data",
		"error.save_failed":            "Failed to save data",
		"error.delete_failed":          "Failed to delete data",
		"error.login_failed":           "Login failed",
		"error.admin_id_invalid":       "Invalid admin id",
		"error.admin_id_type_invalid":  "Invalid admin id type",
	},
	"zh-CN": {
		"error.bad_request":            "请求参数不合法",
		"error.unauthorized":           "未授权",
		"error.forbidden":              "无权访问",
		"error.not_found":              "资源不存在",
		"error.internal":               "服务器内部错误",
		"error.rate_limited":           "请求过于频繁，请在 %d 秒后重试",
		"error.login_too_many":         "登录尝试次数过多，请在 %d 秒后重试",
		"error.rate_limit_unavailable": "限流服务不可用",
		"error.auth_header_missing":    "缺少认证头",
		"error.auth_header_invalid":    "认证头格式不合法",
		"error.token_invalid":          "Token 无效或已过期",
		"error.token_revoked":          "Token 已失效",
		"error.jwt_secret_missing":     "JWT 密钥未配置",
		"error.invalid_credentials":    "用户名或密码错误",
		"error.password_weak":          "密码不符合安全策略",
		"error.password_min_length":    "密码长度不能少于 %d 位",
		"error.password_require_upper": "密码必须包含大写字母",
		"error.password_require_lower": "密码必须包含小写字母",
		"error.password_require_number": "密码必须包含数字",
		"error.password_require_special": "密码必须包含特殊字符",
		"error.password_mismatch":      "旧密码错误",
		"error.referral_not_found":     "推荐条目不存在",
		"error.click_not_found":        "点击记录不存在",
		"error.invalid_category":       "推荐分类不合法",
		"error.invalid_price_range":    "价格区间不合法",
		"error.invalid_rating":         "评分必须在 0 到 5 之间",
		"error.admin_not_found":        "管理员不存在",
		"error.role_invalid":           "未知角色：%s",
		"error.fetch_failed":           "数据获取失败",
		"error.save_failed":            "数据保存失败",
		"error.delete_failed":          "数据删除失败",
		"error.login_failed":           "登录失败",
		"error.admin_id_invalid":       "管理员 ID 不合法",
		"error.admin_id_type_invalid":  "管理员 ID 类型不合法",
	},
	"zh-TW": {
		"error.bad_request":            "請求參數不合法",
		"error.unauthorized":           "未授權",
		"error.forbidden":              "無權訪問",
		"error.not_found":              "資源不存在",
		"error.internal":               "伺服器內部錯誤",
		"error.rate_limited":           "請求過於頻繁，請在 %d 秒後重試",
		"error.login_too_many":         "登入嘗試次數過多，請在 %d 秒後重試",
		"error.rate_limit_unavailable": "限流服務不可用",
		"error.auth_header_missing":    "缺少認證頭",
		"error.auth_header_invalid":    "認證頭格式不合法",
		"error.token_invalid":          "Token 無效或已過期",
		"error.token_revoked":          "Token 已失效",
		"error.jwt_secret_missing":     "JWT 金鑰未配置",
		"error.invalid_credentials":    "使用者名稱或密碼錯誤",
		"error.password_weak":          "密碼不符合安全策略",
		"error.password_min_length":    "密碼長度不能少於 %d 位",
		"error.password_require_upper": "密碼必須包含大寫字母",
		"error.password_require_lower": "密碼必須包含小寫字母",
		"error.password_require_number": "密碼必須包含數字",
		"error.password_require_special": "密碼必須包含特殊字符",
		"error.password_mismatch":      "舊密碼錯誤",
		"error.referral_not_found":     "推薦條目不存在",
		"error.click_not_found":        "點擊記錄不存在",
		"error.invalid_category":       "推薦分類不合法",
		"error.invalid_price_range":    "價格區間不合法",
		"error.invalid_rating":         "評分必須在 0 到 5 之間",
		"error.admin_not_found":        "管理員不存在",
		"error.role_invalid":           "未知角色：%s",
		"error.fetch_failed":           "資料獲取失敗",
		"error.save_failed":            "資料保存失敗",
		"error.delete_failed":          "資料刪除失敗",
		"error.login_failed":           "登入失敗",
		"error.admin_id_invalid":       "管理員 ID 不合法",
		"error.admin_id_type_invalid":  "管理員 ID 類型不合法",
	},
}
