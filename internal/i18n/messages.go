package i18n

// 消息key
const (
	MsgPageTitle      = "page.title"
	MsgLabelURL       = "form.url"
	MsgLabelDepth     = "form.depth"
	MsgLabelMaxItems  = "form.max_items"
	MsgLabelDesc      = "form.description"
	MsgLabelOutputDir = "form.output_dir"
	MsgSubmit         = "form.submit"
	MsgLanguage       = "page.language"
	MsgResults        = "page.results"
	MsgColTitle       = "results.title"
	MsgColStatus      = "results.status"
	MsgColDepth       = "results.depth"
	MsgTaskStarted    = "task.started"
	MsgTaskProcessing = "task.processing"
	MsgTaskCompleted  = "task.completed"
	MsgTaskNotFound   = "task.not_found"
	MsgTaskFailed     = "task.failed"
	MsgURLRequired    = "error.url_required"
	MsgInvalidInput   = "error.invalid_input"
	MsgStorageError   = "error.storage"
	MsgResourceBusy   = "error.resource_busy"
	MsgInternalError  = "error.internal"
	MsgReadResults    = "error.read_results"
	MsgLaunchFailed   = "error.launch_failed"
)

// messages key → 语言代码 → 文本
var messages = map[string]map[string]string{
	MsgPageTitle: {
		"zh": "网页爬虫",
		"en": "Web Crawler",
		"ja": "ウェブクローラー",
		"fr": "Robot d'exploration web",
		"es": "Rastreador web",
	},
	MsgLabelURL: {
		"zh": "目标URL",
		"en": "Target URL",
		"ja": "対象URL",
		"fr": "URL cible",
		"es": "URL de destino",
	},
	MsgLabelDepth: {
		"zh": "爬取深度",
		"en": "Crawl depth",
		"ja": "クロール深度",
		"fr": "Profondeur",
		"es": "Profundidad",
	},
	MsgLabelMaxItems: {
		"zh": "最大页面数",
		"en": "Max pages",
		"ja": "最大ページ数",
		"fr": "Pages maximum",
		"es": "Páginas máximas",
	},
	MsgLabelDesc: {
		"zh": "任务描述",
		"en": "Description",
		"ja": "説明",
		"fr": "Description",
		"es": "Descripción",
	},
	MsgLabelOutputDir: {
		"zh": "输出目录",
		"en": "Output directory",
		"ja": "出力ディレクトリ",
		"fr": "Répertoire de sortie",
		"es": "Directorio de salida",
	},
	MsgSubmit: {
		"zh": "开始爬取",
		"en": "Start crawling",
		"ja": "クロール開始",
		"fr": "Lancer l'exploration",
		"es": "Iniciar rastreo",
	},
	MsgLanguage: {
		"zh": "语言",
		"en": "Language",
		"ja": "言語",
		"fr": "Langue",
		"es": "Idioma",
	},
	MsgResults: {
		"zh": "爬取结果",
		"en": "Results",
		"ja": "結果",
		"fr": "Résultats",
		"es": "Resultados",
	},
	MsgColTitle: {
		"zh": "标题",
		"en": "Title",
		"ja": "タイトル",
		"fr": "Titre",
		"es": "Título",
	},
	MsgColStatus: {
		"zh": "状态码",
		"en": "Status",
		"ja": "ステータス",
		"fr": "Statut",
		"es": "Estado",
	},
	MsgColDepth: {
		"zh": "深度",
		"en": "Depth",
		"ja": "深度",
		"fr": "Profondeur",
		"es": "Profundidad",
	},
	MsgTaskStarted: {
		"zh": "爬虫已开始运行",
		"en": "Crawl task started",
		"ja": "クロールタスクを開始しました",
		"fr": "Tâche d'exploration lancée",
		"es": "Tarea de rastreo iniciada",
	},
	MsgTaskProcessing: {
		"zh": "爬虫正在运行中...",
		"en": "Crawler is running...",
		"ja": "タスク処理中",
		"fr": "Tâche en cours",
		"es": "Tarea en proceso",
	},
	MsgTaskCompleted: {
		"zh": "任务已完成, 共 %d 条结果",
		"en": "Task completed with %d results",
		"ja": "タスク完了、結果 %d 件",
		"fr": "Tâche terminée, %d résultats",
		"es": "Tarea completada, %d resultados",
	},
	MsgTaskNotFound: {
		"zh": "任务不存在或已被删除",
		"en": "Task does not exist or has been deleted",
		"ja": "タスクが見つかりません",
		"fr": "Tâche introuvable",
		"es": "Tarea no encontrada",
	},
	MsgTaskFailed: {
		"zh": "爬取失败: %s",
		"en": "Crawl failed: %s",
		"ja": "クロール失敗: %s",
		"fr": "Échec de l'exploration : %s",
		"es": "Rastreo fallido: %s",
	},
	MsgURLRequired: {
		"zh": "请提供有效的URL",
		"en": "Please provide a valid URL",
		"ja": "URLは必須です",
		"fr": "L'URL est obligatoire",
		"es": "La URL es obligatoria",
	},
	MsgInvalidInput: {
		"zh": "参数无效: %s",
		"en": "Invalid input: %s",
		"ja": "無効な入力: %s",
		"fr": "Entrée invalide : %s",
		"es": "Entrada no válida: %s",
	},
	MsgStorageError: {
		"zh": "文件操作失败: %s",
		"en": "Storage error: %s",
		"ja": "ファイル操作に失敗しました: %s",
		"fr": "Erreur de stockage : %s",
		"es": "Error de almacenamiento: %s",
	},
	MsgResourceBusy: {
		"zh": "系统资源不足, 请稍后重试: %s",
		"en": "Server is busy, try again later: %s",
		"ja": "リソース不足です。後で再試行してください: %s",
		"fr": "Serveur occupé, réessayez plus tard : %s",
		"es": "Servidor ocupado, inténtelo más tarde: %s",
	},
	MsgInternalError: {
		"zh": "服务器内部错误",
		"en": "Internal server error",
		"ja": "内部サーバーエラー",
		"fr": "Erreur interne du serveur",
		"es": "Error interno del servidor",
	},
	MsgReadResults: {
		"zh": "读取爬取结果时发生错误",
		"en": "Failed to read crawl results",
		"ja": "クロール結果の読み込みに失敗しました",
		"fr": "Erreur lors de la lecture des résultats",
		"es": "Error al leer los resultados",
	},
	MsgLaunchFailed: {
		"zh": "启动爬虫失败: %s",
		"en": "Failed to start crawler: %s",
		"ja": "クローラーの起動に失敗しました: %s",
		"fr": "Échec du lancement du robot : %s",
		"es": "Error al iniciar el rastreador: %s",
	},
}

// LanguageNames 语言选择菜单中显示的名称
var LanguageNames = map[string]string{
	"zh": "中文",
	"en": "English",
	"ja": "日本語",
	"fr": "Français",
	"es": "Español",
}
