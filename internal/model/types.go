// 包 model 定义快照与数据库行的数据模型（应用排名/错误记录/快照）。
package model

// AppRecord 为一次抓取成功的应用信息。
// Version 缺失时为空字符串，JSON 中始终保留该字段。
type AppRecord struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Rank      int    `json:"rank"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
}

// ErrorRecord 为一次抓取/解析失败的记录。
type ErrorRecord struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	ErrorMessage string `json:"error_message"`
	Timestamp    string `json:"timestamp"`
}

// Snapshot 为单次运行写出的 JSON 文档，写出后不再修改。
// Apps 按 Rank 升序且排名唯一。
type Snapshot struct {
	Timestamp string        `json:"timestamp"`
	Apps      []AppRecord   `json:"apps"`
	Errors    []ErrorRecord `json:"errors"`
}

// AppRow 对应 apps 表的一行。
type AppRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Version   string `db:"version"`
	Ranking   int    `db:"ranking"`
	URL       string `db:"url"`
	Date      string `db:"date"`
	Timestamp string `db:"timestamp"`
	CreatedAt string `db:"created_at"`
}

// ErrorRow 对应 errors 表的一行（仅追加）。
type ErrorRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	URL          string `db:"url"`
	ErrorMessage string `db:"error_message"`
	Timestamp    string `db:"timestamp"`
	CreatedAt    string `db:"created_at"`
}

// Stats 为库内汇总信息。
type Stats struct {
	AppsTotal   int `db:"apps_total"`
	ErrorsTotal int `db:"errors_total"`
	Dates       int `db:"dates"`
}

// Row 将快照中的记录转换为待写入的行。
func (a AppRecord) Row(createdAt string) AppRow {
	return AppRow{
		Name:      a.Name,
		Version:   a.Version,
		Ranking:   a.Rank,
		URL:       a.URL,
		Date:      a.Date,
		Timestamp: a.Timestamp,
		CreatedAt: createdAt,
	}
}

func (e ErrorRecord) Row(createdAt string) ErrorRow {
	return ErrorRow{
		Name:         e.Name,
		URL:          e.URL,
		ErrorMessage: e.ErrorMessage,
		Timestamp:    e.Timestamp,
		CreatedAt:    createdAt,
	}
}
