package utils

import "strings"

// Message is a user-facing text in English and Arabic.
type Message struct {
	En string
	Ar string
}

// In picks the translation for lang.
func (m Message) In(lang string) string {
	if strings.HasPrefix(lang, "ar") && m.Ar != "" {
		return m.Ar
	}
	return m.En
}

var (
	MsgInvalidBody        = Message{"invalid request body", "بيانات الطلب غير صالحة"}
	MsgInvalidID          = Message{"invalid id", "المعرف غير صالح"}
	MsgUnauthorized       = Message{"unauthorized", "غير مصرح"}
	MsgForbidden          = Message{"access denied", "تم رفض الوصول"}
	MsgUserNotFound       = Message{"user not found", "المستخدم غير موجود"}
	MsgEventNotFound      = Message{"event not found", "الفعالية غير موجودة"}
	MsgCategoryNotFound   = Message{"category not found", "التصنيف غير موجود"}
	MsgBookingNotFound    = Message{"booking not found", "الحجز غير موجود"}
	MsgInvalidCredentials = Message{"invalid email or password", "البريد الإلكتروني أو كلمة المرور غير صحيحة"}
	MsgAccountBlocked     = Message{"account is blocked", "الحساب محظور"}
	MsgEmailTaken         = Message{"email already registered", "البريد الإلكتروني مسجل بالفعل"}
	MsgWeakPassword       = Message{"password must be at least 8 characters", "يجب أن تتكون كلمة المرور من 8 أحرف على الأقل"}
	MsgInvalidEmail       = Message{"invalid email address", "البريد الإلكتروني غير صالح"}
	MsgInvalidPhone       = Message{"phone must be a valid Egyptian mobile number", "يجب أن يكون رقم الهاتف رقم موبايل مصري صالح"}
	MsgPhoneTaken         = Message{"phone number already in use", "رقم الهاتف مستخدم بالفعل"}
	MsgPhoneCooldown      = Message{"phone number can be changed again in %d hours", "يمكن تغيير رقم الهاتف مرة أخرى بعد %d ساعة"}
	MsgOTPSent            = Message{"verification code sent", "تم إرسال رمز التحقق"}
	MsgOTPNotFound        = Message{"verification code not found, request a new one", "رمز التحقق غير موجود، اطلب رمزا جديدا"}
	MsgOTPExpired         = Message{"verification code expired", "انتهت صلاحية رمز التحقق"}
	MsgOTPInvalid         = Message{"invalid verification code", "رمز التحقق غير صحيح"}
	MsgOTPAttempts        = Message{"too many wrong codes, request a new one", "محاولات خاطئة كثيرة، اطلب رمزا جديدا"}
	MsgOTPDeliveryFailed  = Message{"could not deliver verification code", "تعذر إرسال رمز التحقق"}
	MsgPhoneVerified      = Message{"phone number updated", "تم تحديث رقم الهاتف"}
	MsgPasswordChanged    = Message{"password updated successfully", "تم تحديث كلمة المرور بنجاح"}
	MsgWrongPassword      = Message{"current password is incorrect", "كلمة المرور الحالية غير صحيحة"}
	MsgResetNotVerified   = Message{"code not verified yet", "لم يتم التحقق من الرمز بعد"}
	MsgEventNotBookable   = Message{"event is not open for booking", "الفعالية غير متاحة للحجز"}
	MsgNotEnoughTickets   = Message{"not enough tickets available", "لا توجد تذاكر كافية"}
	MsgInvalidQuantity    = Message{"quantity must be at least 1", "يجب أن تكون الكمية 1 على الأقل"}
	MsgPaymentsDisabled   = Message{"online payments are not available", "الدفع الإلكتروني غير متاح"}
	MsgBookingNotCancel   = Message{"booking cannot be cancelled", "لا يمكن إلغاء الحجز"}
	MsgActiveBookings     = Message{"there are active bookings", "توجد حجوزات نشطة"}
	MsgInvalidStatus      = Message{"invalid status", "الحالة غير صالحة"}
	MsgUploadsDisabled    = Message{"image uploads are not configured", "رفع الصور غير مفعل"}
	MsgNotOrganizer       = Message{"user is not an organizer", "المستخدم ليس منظما"}
	MsgCannotFollowSelf   = Message{"you cannot follow yourself", "لا يمكنك متابعة نفسك"}
	MsgCategoryInUse      = Message{"category is used by events", "التصنيف مستخدم في فعاليات"}
	MsgNameRequired       = Message{"name is required", "الاسم مطلوب"}
	MsgInvalidRole        = Message{"invalid role", "الدور غير صالح"}
	MsgTwoFactorPhone     = Message{"verify a phone number before enabling phone 2FA", "قم بتأكيد رقم الهاتف قبل تفعيل التحقق عبر الهاتف"}
	MsgNoFieldsToUpdate   = Message{"no fields to update", "لا توجد حقول للتحديث"}
	MsgInvalidDate        = Message{"invalid date, use RFC3339 or YYYY-MM-DD", "تاريخ غير صالح"}
	MsgInvalidSignature   = Message{"invalid webhook signature", "توقيع غير صالح"}
	MsgTooManyRequests    = Message{"too many requests, try again later", "طلبات كثيرة جدا، حاول لاحقا"}
	MsgSessionNotFound    = Message{"payment session not found", "جلسة الدفع غير موجودة"}
)
