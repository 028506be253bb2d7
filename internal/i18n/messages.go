package i18n

// entries maps message keys to their ar/fr/en text. Response codes double as keys.
var entries = map[string]map[string]string{
	// auth
	"invalid_credentials": {
		"ar": "البريد الإلكتروني أو كلمة المرور غير صحيحة",
		"fr": "Email ou mot de passe incorrect",
		"en": "Invalid email or password",
	},
	"account_disabled": {
		"ar": "هذا الحساب معطل",
		"fr": "Ce compte est désactivé",
		"en": "This account is disabled",
	},
	"email_taken": {
		"ar": "البريد الإلكتروني مستخدم بالفعل",
		"fr": "Cet email est déjà utilisé",
		"en": "Email already registered",
	},
	"username_taken": {
		"ar": "اسم المستخدم مستخدم بالفعل",
		"fr": "Ce nom d'utilisateur est déjà pris",
		"en": "Username already taken",
	},
	"registered": {
		"ar": "تم التسجيل بنجاح",
		"fr": "Inscription réussie",
		"en": "Registration successful",
	},
	"unauthorized": {
		"ar": "يجب تسجيل الدخول",
		"fr": "Authentification requise",
		"en": "Authentication required",
	},
	"invalid_token": {
		"ar": "رمز الدخول غير صالح أو منتهي الصلاحية",
		"fr": "Jeton invalide ou expiré",
		"en": "Invalid or expired token",
	},
	"invalid_refresh": {
		"ar": "جلسة غير صالحة، يرجى تسجيل الدخول من جديد",
		"fr": "Session invalide, veuillez vous reconnecter",
		"en": "Invalid session, please log in again",
	},
	"forbidden": {
		"ar": "غير مسموح لك بهذا الإجراء",
		"fr": "Accès refusé",
		"en": "You are not allowed to do this",
	},
	"admin_required": {
		"ar": "هذا الإجراء مخصص للمدير",
		"fr": "Accès réservé à l'administrateur",
		"en": "Admin access required",
	},

	// generic request errors
	"validation_failed": {
		"ar": "بعض الحقول غير صالحة",
		"fr": "Certains champs sont invalides",
		"en": "Some fields are invalid",
	},
	"invalid_json": {
		"ar": "صيغة الطلب غير صالحة",
		"fr": "Corps de requête invalide",
		"en": "Invalid request body",
	},
	"invalid_id": {
		"ar": "المعرف غير صالح",
		"fr": "Identifiant invalide",
		"en": "Invalid id",
	},
	"invalid_filter": {
		"ar": "عامل التصفية غير صالح",
		"fr": "Filtre invalide",
		"en": "Invalid filter",
	},
	"invalid_cursor": {
		"ar": "مؤشر الصفحة غير صالح",
		"fr": "Curseur de pagination invalide",
		"en": "Invalid cursor",
	},
	"no_fields": {
		"ar": "لا توجد حقول للتحديث",
		"fr": "Aucun champ à mettre à jour",
		"en": "No fields to update",
	},
	"not_found": {
		"ar": "المورد غير موجود",
		"fr": "Ressource introuvable",
		"en": "Resource not found",
	},
	"internal_error": {
		"ar": "حدث خطأ في الخادم",
		"fr": "Erreur interne du serveur",
		"en": "Internal server error",
	},
	"rate_limited": {
		"ar": "طلبات كثيرة، حاول لاحقاً",
		"fr": "Trop de requêtes, réessayez plus tard",
		"en": "Too many requests, try again later",
	},
	"payload_too_large": {
		"ar": "حجم الطلب كبير جداً",
		"fr": "Requête trop volumineuse",
		"en": "Request body too large",
	},
	"unsupported_media_type": {
		"ar": "نوع المحتوى غير مدعوم",
		"fr": "Type de contenu non pris en charge",
		"en": "Unsupported content type",
	},

	// projects
	"project_not_found": {
		"ar": "المشروع غير موجود",
		"fr": "Projet introuvable",
		"en": "Project not found",
	},
	"project_created": {
		"ar": "تم إنشاء المشروع بنجاح",
		"fr": "Projet créé avec succès",
		"en": "Project created successfully",
	},
	"project_updated": {
		"ar": "تم تحديث المشروع بنجاح",
		"fr": "Projet mis à jour avec succès",
		"en": "Project updated successfully",
	},
	"project_deleted": {
		"ar": "تم حذف المشروع بنجاح",
		"fr": "Projet supprimé avec succès",
		"en": "Project deleted successfully",
	},

	// bids
	"bid_not_found": {
		"ar": "العرض غير موجود",
		"fr": "Offre introuvable",
		"en": "Bid not found",
	},
	"candidate_not_found": {
		"ar": "ملف المترشح غير موجود",
		"fr": "Profil candidat introuvable",
		"en": "Candidate profile not found",
	},
	"project_not_open": {
		"ar": "المشروع غير مفتوح لتقديم العروض",
		"fr": "Le projet n'est pas ouvert aux offres",
		"en": "Project is not open for bidding",
	},
	"deadline_passed": {
		"ar": "انتهى أجل تقديم العروض",
		"fr": "La date limite est dépassée",
		"en": "Project deadline has passed",
	},
	"bid_already_submitted": {
		"ar": "لقد قدمت عرضاً لهذا المشروع من قبل",
		"fr": "Vous avez déjà soumis une offre pour ce projet",
		"en": "You have already submitted a bid for this project",
	},
	"bid_submitted": {
		"ar": "تم تقديم العرض بنجاح",
		"fr": "Offre soumise avec succès",
		"en": "Bid submitted successfully",
	},
	"bid_status_updated": {
		"ar": "تم تحديث حالة العرض",
		"fr": "Statut de l'offre mis à jour",
		"en": "Bid status updated",
	},

	// documents
	"document_not_found": {
		"ar": "الوثيقة غير موجودة",
		"fr": "Document introuvable",
		"en": "Document not found",
	},
	"document_uploaded": {
		"ar": "تم رفع الوثيقة بنجاح",
		"fr": "Document téléversé avec succès",
		"en": "Document uploaded successfully",
	},
	"document_verified": {
		"ar": "تم تحديث التحقق من الوثيقة",
		"fr": "Vérification du document mise à jour",
		"en": "Document verification updated",
	},
	"file_required": {
		"ar": "الملف مطلوب",
		"fr": "Le fichier est requis",
		"en": "File is required",
	},
	"file_empty": {
		"ar": "الملف فارغ",
		"fr": "Le fichier est vide",
		"en": "File is empty",
	},
	"file_too_large": {
		"ar": "حجم الملف يتجاوز الحد المسموح",
		"fr": "Le fichier dépasse la taille autorisée",
		"en": "File exceeds the allowed size",
	},
	"unsupported_file_type": {
		"ar": "نوع الملف غير مدعوم (PDF أو JPG أو PNG فقط)",
		"fr": "Type de fichier non pris en charge (PDF, JPG ou PNG uniquement)",
		"en": "Unsupported file type (PDF, JPG or PNG only)",
	},
	"invalid_document_type": {
		"ar": "نوع الوثيقة غير صالح",
		"fr": "Type de document invalide",
		"en": "Invalid document type",
	},

	// jobs
	"job_not_found": {
		"ar": "المهمة غير موجودة",
		"fr": "Tâche introuvable",
		"en": "Job not found",
	},
	"job_not_failed": {
		"ar": "يمكن إعادة المهام الفاشلة فقط",
		"fr": "Seules les tâches en échec peuvent être relancées",
		"en": "Only failed jobs can be retried",
	},
	"job_requeued": {
		"ar": "تمت إعادة جدولة المهمة",
		"fr": "Tâche replanifiée",
		"en": "Job requeued",
	},
}
