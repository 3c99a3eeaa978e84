// Package student содержит доменную модель справочника студентов учебного отдела.
//
// Пакет определяет:
//
//   - Value Objects: Date, Key, Identity, SortKey
//   - Сущности (Entities): Student
//   - Агрегат: StudyDept - упорядоченное хранилище студентов
//   - Построители запросов: Filter, Sort
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Все операции справочника синхронны и не возвращают ошибок:
//     результат сообщается флагом успеха или (возможно пустым) срезом
//  3. Identity (внутренний дескриптор) и Key (доменное равенство) - разные понятия
//
// # Доменное равенство
//
// Два студента равны, если совпадают имя, дата рождения и год поступления.
// Справочник никогда не хранит двух равных студентов:
//
//	dept := NewStudyDept()
//	dept.AddStudent(NewStudent("James Bond", NewDate(1980, 4, 11), 2010)) // true
//	dept.AddStudent(NewStudent("James Bond", NewDate(1980, 4, 11), 2010)) // false
//
// # Поиск
//
// Фильтр и сортировка строятся декларативно и вычисляются лениво при поиске:
//
//	result := dept.Search(
//	    NewFilter().Name("james bond").BornAfter(NewDate(1980, 4, 11)),
//	    NewSort().AddKey(SortByEnrollmentYear, false).AddKey(SortByName, true),
//	)
//
// Повторный вызов одного и того же метода фильтра заменяет предыдущее
// значение, а не объединяет их через ИЛИ.
//
// # Подсказки
//
// Suggest ищет имена, содержащие все слова запроса (без учёта регистра и
// порядка). Это отдельная семантика от Filter.Name, который требует точного
// совпадения мультимножества слов:
//
//	dept.Suggest("peter")      // ["John Peter Taylor", "Peter Taylor"]
//	dept.Suggest("peter john") // ["John Peter Taylor"]
package student
